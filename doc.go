// Package auth provides password credential authentication and bearer
// token authorization: bcrypt hashing, credential stores, JWT issuance and
// validation, and a fiber HTTP transport.
//
// Flow:
//   - Register hashes the plaintext and creates a guest User through a
//     CredentialStore. MemoryStore and the bun backed UserStore both reject
//     duplicate usernames atomically.
//   - Login looks the user up, verifies the password and issues a signed
//     token valid for the configured TTL. Unknown users and wrong passwords
//     return the same ErrInvalidCredentials after the same hashing work.
//   - Authorize validates a token at the service clock and returns its
//     claims. Every rejection surfaces as ErrUnauthorized; the reason is
//     logged and sent to the ActivitySink.
//
// Token validation checks structure, then signature, then expiry.
// MultiTokenValidator accepts tokens from rotated signing keys and
// JWKSValidator accepts tokens signed by keys published as a JWK Set.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter for register, login and
//     authorize events. Sinks run best-effort (errors are logged) and never
//     receive passwords, digests or token values.
package auth
