// Package config defines daemon settings used by the lifesync binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Values come from three layers: the YAML file, LIFESYNC_* environment
// overrides and built-in defaults filled by Validate. The Settings block
// holds the user preferences consumed by ring sessions.
package config
