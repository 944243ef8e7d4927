// Package config loads arcana's settings with viper.
//
// Values come from built-in defaults, an optional YAML file and TAROT_*
// environment variables, in increasing order of precedence. Load validates
// the merged result with go-playground/validator so a server never starts
// with, say, a reveal interval of zero or a JWT secret that is too short.
package config
