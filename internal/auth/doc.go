// Package auth provides JWT bearer-token authentication for the hireflow API.
//
// Tokens are signed with HS256 using the configured jwt_secret. The subject
// claim carries the client id; expiry is checked on every verification. The
// hireflow token subcommand mints tokens with the same verifier.
package auth
