// Package config loads the updater settings from an optional YAML file.
//
// Every key has a documented default, so a missing file or a missing key is
// never an error. Timeouts distinguish "absent" (use the default) from an
// explicit zero, which disables the timeout entirely.
package config
