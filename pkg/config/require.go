package config

import "fmt"

func NonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

func MinLen(value []byte, n int, envName string) error {
	if len(value) < n {
		return fmt.Errorf("env %s must be at least %d characters long (current: %d)", envName, n, len(value))
	}
	return nil
}
