/*
Package jwt implements the identity verifier: the mapping from a connection's
credential to a user identity. The credential is a signed token; verification
also checks the identity still resolves in the user directory so a deleted
account cannot keep an old token alive.
*/
package jwt

import (
	"context"

	"github.com/userDoffy/Kura/internal/app/user"
	"github.com/userDoffy/Kura/internal/pkg/errs"
	"github.com/userDoffy/Kura/internal/pkg/logx"
)

// Verifier maps a connection credential to a user identity, or fails.
type Verifier interface {
	Verify(ctx context.Context, credential string) (string, *errs.CustomError)
}

// TokenVerifier verifies signed tokens against the shared secret and the
// user directory.
type TokenVerifier struct {
	secretKey string
	directory user.Directory
}

// NewTokenVerifier constructs a TokenVerifier.
func NewTokenVerifier(secretKey string, directory user.Directory) *TokenVerifier {
	return &TokenVerifier{secretKey: secretKey, directory: directory}
}

// Verify parses and validates the credential and confirms the identity is
// known. Every failure mode is reported as a single auth error; the caller
// closes the connection with no state created.
func (v *TokenVerifier) Verify(ctx context.Context, credential string) (string, *errs.CustomError) {
	if credential == "" {
		return "", errs.NewError(errs.ErrAuthFailed)
	}

	payload, err := ParseToken(credential, v.secretKey)
	if err != nil {
		logx.Warn("Connection credential rejected", "error", err.Error())
		return "", errs.NewError(errs.ErrAuthFailed)
	}

	exists, err := v.directory.Exists(ctx, payload.UserID)
	if err != nil {
		logx.Error(err, "Directory lookup failed during verification", "user_id", payload.UserID)
		return "", errs.NewError(errs.ErrAuthFailed)
	}
	if !exists {
		return "", errs.NewError(errs.ErrAuthFailed)
	}

	return payload.UserID, nil
}
