// Package oauth provides adapters for integrating the github.com/giantswarm/mcp-oauth
// library with the meetfinder MCP server.
//
// This package bridges the mcp-oauth library with the rest of the server:
// configuration mapping, a token provider backed by the library's token store,
// and middleware that captures Google access tokens forwarded by trusted
// upstream clients.
//
// Dependency Security Note:
// This package depends on github.com/giantswarm/mcp-oauth for the OAuth 2.1
// implementation. The library provides: PKCE enforcement, refresh token rotation,
// rate limiting, and audit logging.
// Action required: Monitor https://github.com/giantswarm/mcp-oauth for security updates.
package oauth
