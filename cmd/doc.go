// Package cmd implements the command-line interface for meetfinder.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide scheduling tools for AI assistants
//   - auth: Run the OAuth authorization flow for a Google account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
