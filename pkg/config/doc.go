// Package config loads process configuration from CONFSTORE_* environment
// variables. Behavior never depends on configuration beyond these plain
// key/value settings; validation catches contradictory values at startup
// rather than at first use.
package config
