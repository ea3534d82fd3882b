// Package env has small helpers for reading process environment
// variables that sit outside the envconfig-managed Config.
package env

import "os"

// Get reads key from the environment, returning fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
