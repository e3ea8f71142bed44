// Package daemon wires cold boot, the live device-event monitor, and
// single-instance enforcement into the long-running devd process.
package daemon
