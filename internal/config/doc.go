// Package config provides configuration structures and utilities for sitecheck.
// It defines the probe, archive, snapshot and report settings, the optional
// YAML config file with per-site overrides, and the loader for site lists.
package config
