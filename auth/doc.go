// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies caller identity and guards poll ownership.

# Session Tokens

Users sign in through an upstream service that shares SESSION_SALT with this
server. It issues HMAC-SHA256 tokens:

	token := auth.IssueSessionToken("alice", salt)   // "alice.<sig>"
	id, err := auth.VerifySessionToken(token, salt)

The signature is URL-safe base64 without padding. Requests carry the token as
"Authorization: Bearer <token>":

	id, err := auth.IdentityFromRequest(r, salt)

A request without the header is anonymous (models.Anonymous). A header that
does not verify returns ErrInvalidToken.

# Authorization Guard

Authorize decides whether a caller may act on a poll:

	auth.Authorize(auth.OpRead, poll, caller)    // always true
	auth.Authorize(auth.OpUpdate, poll, caller)  // caller must own the poll
	auth.Authorize(auth.OpDelete, poll, caller)  // caller must own the poll

The poll argument must be the record freshly read from storage. Require
returns models.ErrUnauthorized for anonymous callers and models.ErrForbidden
for other users.

# ID Generation

	id := auth.GenerateID()      // random UUID
	err := auth.ValidateID(id)   // ErrInvalidID unless well-formed
*/
package auth
