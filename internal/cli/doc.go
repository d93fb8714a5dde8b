// Package cli implements the goguard command tree.
//
// Every subcommand builds its own goGuard.Engine from --config, GOGUARD_*
// environment variables and flags, forwards --cookie to the backend and prints
// results as JSON on stdout. Logs go to stderr through slog.
package cli
