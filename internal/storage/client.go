// Package storage is a thin client for the Supabase Storage REST API:
// upload, remove, and time-limited signed URLs for lead documents.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solarflowhq/solarflow-backend/internal/config"
)

type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	http       *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.SupabaseURL,
		serviceKey: cfg.SupabaseServiceKey,
		bucket:     cfg.StorageBucket,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload writes an object at path. An empty bearer falls back to the
// service credential; a user bearer keeps storage policies attributable.
func (c *Client) Upload(ctx context.Context, path, contentType string, data []byte, bearer string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req, bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError("upload", resp)
	}
	return nil
}

// Remove deletes an object. Used for superseded submissions; callers treat
// failures as best-effort cleanup.
func (c *Client) Remove(ctx context.Context, path string, bearer string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req, bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage remove failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return apiError("remove", resp)
	}
	return nil
}

// SignedURL returns a download URL valid for ttl.
func (c *Client) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	body, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, c.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage sign failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", apiError("sign", resp)
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", errors.New("storage sign returned empty URL")
	}
	return c.baseURL + "/storage/v1" + out.SignedURL, nil
}

func (c *Client) authorize(req *http.Request, bearer string) {
	if bearer == "" {
		bearer = c.serviceKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("apikey", c.serviceKey)
}

func apiError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("storage %s returned %d: %s", op, resp.StatusCode, string(b))
}
