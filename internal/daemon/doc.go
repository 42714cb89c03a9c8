// Package daemon ties the suggestion store, the prediction source catalog,
// and the generation worker pool into a single lifecycle with flock-based
// locking to prevent multiple instances from sharing one database.
package daemon
