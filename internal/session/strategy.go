package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Supabase auth cookies set by the frontend helpers.
const (
	CookieAccessToken  = "sb-access-token"
	CookieRefreshToken = "sb-refresh-token"
)

// TokenStrategy produces the bearer credential for secondary-system calls.
type TokenStrategy interface {
	Name() string
	Credential(c *fiber.Ctx, id *Identity) (string, error)
}

// BearerStrategy passes the Supabase access token embedded in the primary
// session straight through. It never touches cookies: the cookie exchange
// path has proven failure-prone and is only a fallback.
type BearerStrategy struct{}

func (BearerStrategy) Name() string { return "bearer" }

func (BearerStrategy) Credential(_ *fiber.Ctx, id *Identity) (string, error) {
	if id == nil || id.SupabaseToken == "" {
		return "", errors.New("primary session carries no embedded token")
	}
	return id.SupabaseToken, nil
}

// CookieStrategy resolves the Supabase session from its auth cookies,
// refreshing through the auth endpoint when only a refresh token is left.
type CookieStrategy struct {
	AuthURL string // e.g. https://xyz.supabase.co
	AnonKey string
	Client  *http.Client
}

func NewCookieStrategy(authURL, anonKey string) *CookieStrategy {
	return &CookieStrategy{
		AuthURL: authURL,
		AnonKey: anonKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (*CookieStrategy) Name() string { return "cookie" }

func (s *CookieStrategy) Credential(c *fiber.Ctx, _ *Identity) (string, error) {
	if tok := c.Cookies(CookieAccessToken); tok != "" {
		return tok, nil
	}

	refresh := c.Cookies(CookieRefreshToken)
	if refresh == "" {
		return "", errors.New("no supabase session cookies")
	}
	return s.refresh(refresh)
}

func (s *CookieStrategy) refresh(refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", err
	}

	url := s.AuthURL + "/auth/v1/token?grant_type=refresh_token"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.AnonKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("supabase token refresh returned %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("supabase token refresh returned empty token")
	}
	return out.AccessToken, nil
}
