// Package google handles Google OAuth authentication and token caching.
//
// Tokens are cached per account under the user cache directory
// (meetfinder/google-<account>.token) and refreshed automatically through
// oauth2 token sources. The TokenProvider interface lets HTTP sessions
// substitute their own token storage for the file cache used in stdio mode.
package google
