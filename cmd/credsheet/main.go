// Package main provides the entry point for the credsheet CLI.
//
// credsheet renders bulk-created student credentials into a confidential
// handout (PDF by default) for distribution by an organization.
//
// Usage:
//
//	credsheet generate students.csv
//	credsheet serve --listen 127.0.0.1:8080
//
// See --help for all available options.
package main

// main is the entry point for credsheet.
func main() {
	Execute()
}
