// Package config defines the settings shared by the wake-engine binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the engine and companion gRPC addresses, the Redis
// and database locations, and the companion handshake tuning knobs.
package config
