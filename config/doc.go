// Package config loads and validates application configuration. Layering is
// fixed: built-in defaults, then an optional JSON file, then PCAXIS_*
// environment overrides. Validation runs last and reports every problem at
// once.
package config
