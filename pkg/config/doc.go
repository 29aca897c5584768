// Package config defines the gateway configuration model and loading logic.
//
// Configuration is read from a YAML file and then overlaid with environment
// variables prefixed with PROMPTGATE_ (e.g. PROMPTGATE_SERVER.LISTEN_ADDRESS).
// Defaults are applied before validation so a minimal config file is enough
// to run the gateway against a local backend.
package config
