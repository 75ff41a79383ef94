package google

// DefaultOAuthScopes are the Google OAuth scopes required for full
// functionality. These scopes are used consistently across the application
// for OAuth configurations.
//
// The scopes provide access to:
//   - Google Calendar: events, calendar metadata and free/busy queries
//   - OpenID Connect: user identity for multi-account session tracking
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope (covers events, calendars and free/busy)
	"https://www.googleapis.com/auth/calendar",
}
