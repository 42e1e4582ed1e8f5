package session

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/solarflowhq/solarflow-backend/internal/config"
)

// Bridge resolves a request's primary session into an Identity whose
// secondary credential Supabase can attribute. Stateless between calls.
type Bridge struct {
	secret []byte
	bearer TokenStrategy
	cookie TokenStrategy

	authURL string
	anonKey string
	client  *http.Client
}

func NewBridge(cfg *config.Config) *Bridge {
	return &Bridge{
		secret:  []byte(cfg.JWTSecret),
		bearer:  BearerStrategy{},
		cookie:  NewCookieStrategy(cfg.SupabaseURL, cfg.SupabaseAnonKey),
		authURL: cfg.SupabaseURL,
		anonKey: cfg.SupabaseAnonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve extracts and verifies the primary token from the request, then
// attaches the secondary credential via the strategy selected by the
// presence of an embedded token. A missing or invalid primary token yields
// (nil, nil): the caller decides between redirect and 401.
func (b *Bridge) Resolve(c *fiber.Ctx) (*Identity, error) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil, nil
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return b.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	id, err := FromClaims(claims)
	if err != nil {
		return nil, nil
	}

	strategy := b.cookie
	if id.SupabaseToken != "" {
		strategy = b.bearer
	}

	cred, err := strategy.Credential(c, id)
	if err != nil {
		// The primary session stands on its own; secondary calls fall back
		// to the service credential.
		slog.Debug("secondary credential unresolved", "strategy", strategy.Name(), "error", err)
	} else {
		id.Credential = cred
	}
	id.Strategy = strategy.Name()
	return id, nil
}

// Clear tears down the local Supabase session on logout. Best-effort:
// failures are logged and swallowed, logout must never block on them.
func (b *Bridge) Clear(c *fiber.Ctx, id *Identity) {
	c.ClearCookie(CookieAccessToken, CookieRefreshToken)

	if id == nil || id.Credential == "" || b.authURL == "" {
		return
	}

	req, err := http.NewRequest(http.MethodPost, b.authURL+"/auth/v1/logout", nil)
	if err != nil {
		return
	}
	req.Header.Set("apikey", b.anonKey)
	req.Header.Set("Authorization", "Bearer "+id.Credential)

	resp, err := b.client.Do(req)
	if err != nil {
		slog.Warn("supabase session clear failed", "error", err)
		return
	}
	resp.Body.Close()
}

// tokenFromRequest prefers the Authorization header, falling back to the
// session cookie the web client sets.
func tokenFromRequest(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Cookies("sf_session")
}
