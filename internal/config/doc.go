// Package config loads the focusmate runtime configuration from the
// environment.
package config
