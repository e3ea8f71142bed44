// Package uevent defines kernel device-event records, the cold-boot backlog,
// the replay listener that regenerates events for pre-existing devices, and
// the handlers applied to each event.
package uevent
