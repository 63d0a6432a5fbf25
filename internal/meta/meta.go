// Package meta holds build metadata shared by CLI subcommands.
package meta

// Version is the release version reported by the CLI.
const Version = "1.0.0"
