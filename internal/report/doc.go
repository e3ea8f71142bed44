// Package report persists one record per cold-boot session so operators can
// inspect boot timing after the fact.
package report
