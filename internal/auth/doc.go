// Package auth handles reader sign-in and request authentication.
//
// Two modes are supported:
//   - "none": every request acts as a single default reader. Meant for
//     local development and the demo dataset.
//   - "local": reader accounts in the database, session cookies for the
//     web reader and Bearer tokens for API clients. Editorial routes
//     additionally require the admin role.
//
// # Configuration
//
// AUTH_MODE selects the mode:
//
//	AUTH_MODE=none   # Default, single implicit reader
//	AUTH_MODE=local  # Reader accounts and login required
//
// Local mode reads further settings:
//
//	AUTH_SESSION_SECRET=<base64-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Reading session cookie lifetime
//	AUTH_TOKEN_EXPIRY=720h                 # API token expiry (30 days default)
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5              # Failures before lockout
//	AUTH_LOCKOUT_DURATION=15m              # Account lockout after repeated failures
//
// # Usage
//
// Wired once in the entrypoint:
//
//	authService := auth.NewService(userRepo, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//
// Handlers read the requester with auth.GetUserID(c), which yields the
// default reader id in "none" mode. Proficiency level and role travel on
// the gin context alongside the user id.
package auth
