// Package gatehouse provides a pluggable authentication pipeline for
// HTTP-style request processing: a firewall map resolves which security
// boundary governs a request, an ordered chain of authenticator strategies
// runs against it, the resulting identity token is written to a
// request-scoped storage, and persistent re-authentication is supported
// through a signed remember-me cookie with rate-limited login attempts.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], the [Authenticator] capability and its shipped variants
// (FormLogin, RemoteUser, RememberMe, CsrfToken, Captcha), and the error
// taxonomy. Supporting concerns live in subpackages: request/response
// shims under request, the credential path resolver under credentials,
// firewall and access maps plus lazy execution under firewall, tokens and
// their storage under token, the remember-me cookie protocol under
// rememberme, and the default argon2id hasher under password. Internal
// coordination (rate limiting, audit dispatch) lives under internal/ and
// is never exported.
//
// # Architecture boundaries
//
//   - The Engine performs no concurrent I/O of its own; one pipeline run
//     handles one request, synchronously.
//   - Token storage is per request. The engine binds a fresh storage to
//     the request's attribute bag on first use; session- or bearer-backed
//     storages can be bound up front.
//   - Rate-limit counters, user accounts, access decisions, and captcha
//     verification are external collaborators consumed through interfaces.
package gatehouse
