// Package http provides HTTP handlers and middleware for the post
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /users: creates an account. Body: {"email","display_name","password"}.
//   - POST /sessions: issues a session token. Body: {"email","password"}. The
//     token is also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 No Content
//     and clears the cookie.
//   - GET /drafts, POST /drafts, GET /drafts/{id}, PUT /drafts/{id},
//     DELETE /drafts/{id}: draft management endpoints exchanging the
//     `draftDTO` payload defined in draft_handler.go. Listing accepts an
//     optional `status` query parameter.
//   - POST /drafts/{id}/publish: publishes the draft to LinkedIn immediately.
//   - GET /linkedin/connect: redirects to the provider authorization page.
//   - GET /linkedin/callback: completes the OAuth round-trip and renders a
//     popup page that reports the result to the opener via postMessage.
//   - GET /linkedin/connection, DELETE /linkedin/connection: connection
//     status and disconnect.
//   - POST /generate: produces AI assisted draft copy from a prompt.
//   - POST /cron/publish, POST /cron/analytics: batch sweeps for an external
//     timer trigger, guarded by a shared bearer secret.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
