package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound = goerr.New("configuration file not found")
	ErrInvalidConfig  = goerr.New("invalid configuration")
	ErrInvalidNoAuth  = goerr.New("invalid no-auth identity")
	ErrInvalidLogger  = goerr.New("invalid logger configuration")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ViewKey       = "view"
	FlagKey       = "flag"
)
