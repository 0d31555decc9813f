//go:build !debugging

package config

// Debugging enables the validation and debug display sets.
const Debugging = false
