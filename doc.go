// Package api provides wallet-signature authentication and the core services
// of a chat backend (channels, servers, messages, read states) over Bun.
//
// Authentication:
//   - Clients sign a small JSON challenge ({address, signed_at}) with their
//     wallet key. WalletAuthenticator recovers the signer, provisions the user
//     on first login (ENS name or shortened address), persists a refresh
//     record, and issues an HS256 access/refresh token pair.
//   - SessionGuard turns a bearer access token back into a live user: the
//     token must decode, the user must be active, and at least one unexpired
//     refresh record must exist. Logout revokes all records, so revocation is
//     simply the absence of a live session.
//
// Permissions:
//   - Every repository read and write runs through an actor-scoped
//     Repository[T] (see the repository subpackage). A record the actor cannot
//     see behaves as missing; a record that exists outside their scope is
//     forbidden. Services never re-check membership by hand.
//
// Channels and read state:
//   - Direct-message channels are idempotent by member set: creating a DM with
//     the same participants, in any order, returns the existing channel.
//   - A channel's last_message_ts only moves forward (conditional update), so
//     message fan-in from concurrent writers cannot regress it. Per-user read
//     markers are last-writer-wins and reset the mention count.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the authenticator to
//     record login and logout events. Sink errors are logged, never returned,
//     so forwarding to a queue or database cannot block authentication.
package api
