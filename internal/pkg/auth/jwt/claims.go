package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims for a Kura connection credential.
// The token binds a single user identity; everything a connection may do is
// derived from that identity after verification, never from request payloads.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the stable identifier of the authenticated user.
	UserID string `json:"user_id"`
}
