// Package config holds the settings shared by the credsheet commands and
// the HTTP server: output format and location, rendering switches, history
// database location and server limits.
//
// Values are layered. NewConfig supplies defaults, a .credsheet YAML file
// may set defaults and named profiles, CREDSHEET_* environment variables
// (optionally read from a .env file) override the file, and command-line
// flags override everything.
package config
