// Package coldboot drains the backlog of device events that accumulated
// before the daemon attached. It regenerates the backlog from sysfs,
// partitions it across worker processes by stride, supervises the workers
// with a fatal-on-crash policy, and publishes completion.
//
// Worker crashes abort the daemon on purpose: partial relabeling or partial
// event handling leaves the system in an unverifiable state, and the
// supervisor above the daemon restarts it for a clean rerun.
package coldboot
