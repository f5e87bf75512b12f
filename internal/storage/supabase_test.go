package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannerKey(t *testing.T) {
	k := BannerKey("home-top", "Sale.PNG")
	assert.True(t, strings.HasPrefix(k, "banner/home-top/"))
	assert.True(t, strings.HasSuffix(k, ".png"))
	assert.NotEqual(t, k, BannerKey("home-top", "Sale.PNG"))
}

func TestSupabaseCalls(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		seen = append(seen, r.Method+" "+r.URL.Path)

		switch {
		case strings.HasPrefix(r.URL.Path, "/storage/v1/object/sign/"):
			var in map[string]int
			_ = json.NewDecoder(r.Body).Decode(&in)
			assert.Equal(t, 60, in["expiresIn"])
			_, _ = io.WriteString(w, `{"signedURL":"/object/sign/banners/a.png?token=t"}`)
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/gone.png"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/remove"):
			var in map[string][]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			assert.Equal(t, []string{"a.png", "b.png"}, in["prefixes"])
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/bad.png"):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"nope"}`)
		}
	}))
	defer srv.Close()

	s := NewSupabase(srv.URL+"/", "key", "banners")
	require.True(t, s.Configured())
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "a.png", strings.NewReader("png"), "image/png"))

	url, err := s.SignedURL(ctx, "a.png", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/banners/a.png?token=t", url)

	assert.NoError(t, s.Delete(ctx, "gone.png"))
	assert.NoError(t, s.BulkDelete(ctx, []string{"a.png", "b.png"}))
	assert.NoError(t, s.BulkDelete(ctx, nil))

	err = s.Upload(ctx, "bad.png", strings.NewReader("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")

	assert.Equal(t, []string{
		"POST /storage/v1/object/banners/a.png",
		"POST /storage/v1/object/sign/banners/a.png",
		"DELETE /storage/v1/object/banners/gone.png",
		"POST /storage/v1/object/banners/remove",
		"POST /storage/v1/object/banners/bad.png",
	}, seen)
}

func TestNotConfigured(t *testing.T) {
	assert.False(t, NewSupabase("", "", "banners").Configured())
}
