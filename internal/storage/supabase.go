package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

/*
Supabase wraps the few Storage REST calls the banner slots need.

Authorization: a service_role JWT is sent both as `apikey` and as
`Authorization: Bearer <token>`.
*/

// ObjectStore is what the banner handlers need from object storage.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	BulkDelete(ctx context.Context, keys []string) error
}

type Supabase struct {
	baseURL string // e.g. https://<project>.supabase.co
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewSupabase(baseURL, apiKey, bucket string) *Supabase {
	return &Supabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a project URL and key were provided.
func (s *Supabase) Configured() bool {
	return s.baseURL != "" && s.apiKey != ""
}

// BannerKey builds a collision-free key: banner/<placement>/<uuid><ext>
func BannerKey(placement, filename string) string {
	return path.Join("banner", placement, uuid.NewString()+strings.ToLower(path.Ext(filename)))
}

func (s *Supabase) objectURL(parts ...string) string {
	return s.baseURL + "/storage/v1/object/" + strings.Join(parts, "/")
}

func (s *Supabase) do(ctx context.Context, method, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	return s.client.Do(req)
}

func statusError(op string, res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("supabase %s error: %s | %s", op, res.Status, string(b))
}

// Upload sends a new object to: POST /storage/v1/object/{bucket}/{objectName}
func (s *Supabase) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	res, err := s.do(ctx, http.MethodPost, s.objectURL(s.bucket, key), contentType, r)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return statusError("upload", res)
	}
	return nil
}

// SignedURL creates a short-lived signed URL:
// POST /storage/v1/object/sign/{bucket}/{objectName}  body: {"expiresIn": <seconds>}
func (s *Supabase) SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	body, _ := json.Marshal(map[string]int{"expiresIn": int(expiresIn / time.Second)})
	res, err := s.do(ctx, http.MethodPost, s.objectURL("sign", s.bucket, key), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return "", statusError("sign", res)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	signed := gjson.GetBytes(raw, "signedURL").String()
	if signed == "" {
		return "", fmt.Errorf("empty signedURL in response")
	}

	// API returns a relative path; convert to absolute URL.
	return s.baseURL + "/storage/v1" + signed, nil
}

// Delete removes an object by key:
// DELETE /storage/v1/object/{bucket}/{objectName}
// 404 is treated as success (already deleted).
func (s *Supabase) Delete(ctx context.Context, key string) error {
	res, err := s.do(ctx, http.MethodDelete, s.objectURL(s.bucket, key), "", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode >= 300 {
		return statusError("delete", res)
	}
	return nil
}

// BulkDelete removes multiple objects in one call:
// POST /storage/v1/object/{bucket}/remove  body: {"prefixes": [...]}
func (s *Supabase) BulkDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	body, _ := json.Marshal(map[string][]string{"prefixes": keys})
	res, err := s.do(ctx, http.MethodPost, s.objectURL(s.bucket, "remove"), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return statusError("bulk delete", res)
	}
	return nil
}
