// Package session bridges the primary JWT session with the Supabase
// session the row-level-security policies and storage bucket expect. One
// identity, two trust domains: the primary token may embed a Supabase
// access token, in which case it is used directly as a bearer credential;
// otherwise the Supabase cookie session is exchanged.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityLocal = "identity"

// Claim names carried by the primary access token.
const (
	ClaimSub           = "sub"
	ClaimEmail         = "email"
	ClaimRole          = "role"
	ClaimStatus        = "status"
	ClaimSupabaseToken = "sb_token"
)

// Identity is the resolved caller: primary claims plus the credential used
// to attribute secondary-system calls to the same user.
type Identity struct {
	UserID        uuid.UUID
	Email         string
	Role          string
	Status        string
	SupabaseToken string
	// Credential is the bearer token attached to Supabase calls. Empty when
	// no secondary session could be resolved.
	Credential string
	// Strategy names the token strategy that produced Credential.
	Strategy string
}

var ErrNoIdentity = errors.New("no identity in context")

// FromClaims builds an Identity from verified primary-token claims.
func FromClaims(claims jwt.MapClaims) (*Identity, error) {
	sub, _ := claims[ClaimSub].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("missing or malformed sub claim")
	}

	id := &Identity{UserID: userID}
	id.Email, _ = claims[ClaimEmail].(string)
	id.Role, _ = claims[ClaimRole].(string)
	id.Status, _ = claims[ClaimStatus].(string)
	id.SupabaseToken, _ = claims[ClaimSupabaseToken].(string)
	return id, nil
}

// Store attaches the identity to the request context.
func Store(c *fiber.Ctx, id *Identity) {
	c.Locals(identityLocal, id)
}

// FromContext returns the identity placed in locals by the route guard.
func FromContext(c *fiber.Ctx) (*Identity, error) {
	if id, ok := c.Locals(identityLocal).(*Identity); ok && id != nil {
		return id, nil
	}
	return nil, ErrNoIdentity
}
