package uevent

import "strings"

// Event is a single kernel device notification. Events are immutable once
// produced by a listener.
type Event struct {
	Action    string            `json:"action"`
	KObj      string            `json:"kobj"`
	Subsystem string            `json:"subsystem,omitempty"`
	DevName   string            `json:"devname,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// DevicePath returns the /dev path for the event's device node, or "" when
// the event carries none.
func (e Event) DevicePath() string {
	if e.DevName == "" {
		return ""
	}
	if strings.HasPrefix(e.DevName, "/") {
		return e.DevName
	}
	return "/dev/" + e.DevName
}

// Modalias returns the event's MODALIAS value, if any.
func (e Event) Modalias() string {
	return e.Env["MODALIAS"]
}

// FromEnv builds an Event from a kobject path and its uevent environment.
func FromEnv(action, kobj string, env map[string]string) Event {
	return Event{
		Action:    action,
		KObj:      kobj,
		Subsystem: env["SUBSYSTEM"],
		DevName:   env["DEVNAME"],
		Env:       env,
	}
}
