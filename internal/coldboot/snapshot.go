package coldboot

import (
	"encoding/json"
	"fmt"

	"devd/internal/shmem"
	"devd/internal/uevent"
)

// snapshotFD is the descriptor number workers inherit the snapshot region on,
// directly after stdio.
const snapshotFD = 3

// Snapshot is the read-only state handed to every worker: the full event
// backlog and the discovered restore set. Each worker processes only its own
// stride of both.
type Snapshot struct {
	Events      []uevent.Event `json:"events"`
	RestoreDirs []string       `json:"restore_dirs"`
	Parallel    bool           `json:"parallel"`
}

// Seal serializes the snapshot into a sealed memory region whose descriptor
// can be inherited by workers.
func (s Snapshot) Seal() (*shmem.Region, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	region, err := shmem.Create("devd-coldboot", data)
	if err != nil {
		return nil, err
	}
	return region, nil
}

// LoadSnapshot reads the snapshot a worker inherited on snapshotFD.
func LoadSnapshot() (Snapshot, error) {
	data, err := shmem.ReadInherited(snapshotFD)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
