// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-poll/models"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrInvalidID    = errors.New("invalid id")
)

// GenerateID creates a random UUID for database records
func GenerateID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a well-formed UUID
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// IssueSessionToken creates an HMAC-signed token of the form "<user>.<sig>".
// The upstream login service calls this with the shared salt.
func IssueSessionToken(userID, salt string) string {
	return userID + "." + sign(userID, salt)
}

// VerifySessionToken returns the identity a token was issued for
func VerifySessionToken(token, salt string) (models.Identity, error) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return models.Anonymous, ErrInvalidToken
	}

	userID, sig := token[:i], token[i+1:]
	expected := sign(userID, salt)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return models.Anonymous, ErrInvalidToken
	}
	return models.Identity(userID), nil
}

// IdentityFromRequest reads the bearer token from the Authorization header.
// No header means an anonymous caller; a malformed or forged token is an error.
func IdentityFromRequest(r *http.Request, salt string) (models.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.Anonymous, nil
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return models.Anonymous, ErrInvalidToken
	}
	return VerifySessionToken(strings.TrimSpace(token), salt)
}

func sign(userID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(userID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}
