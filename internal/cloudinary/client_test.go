package cloudinary

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresCredentials(t *testing.T) {
	var c *Client = New("demo", "", "secret", "")
	assert.Nil(t, c)
	_, err := c.UploadDataURL(context.Background(), "data:image/png;base64,AAAA", "u1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSign(t *testing.T) {
	c := New("demo", "key", "secret", "")
	got := c.sign(map[string]string{"timestamp": "100", "public_id": "u1", "api_key": "key", "folder": ""})
	want := fmt.Sprintf("%x", sha1.Sum([]byte("public_id=u1&timestamp=100secret")))
	assert.Equal(t, want, got)
}

func TestUploadDataURL(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		_, _ = w.Write([]byte(`{"public_id":"avatars/u1","secure_url":"https://res.example/avatars/u1.png","width":64,"height":64}`))
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "avatars")
	c.baseURL = srv.URL
	c.now = func() time.Time { return time.Unix(100, 0) }

	img, err := c.UploadDataURL(context.Background(), "data:image/png;base64,AAAA", "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/avatars/u1.png", img.SecureURL)

	assert.Equal(t, "key", form["api_key"])
	assert.Equal(t, "u1", form["public_id"])
	assert.Equal(t, "avatars", form["folder"])
	assert.Equal(t, c.sign(map[string]string{"timestamp": "100", "folder": "avatars", "public_id": "u1", "overwrite": "true"}), form["signature"])
}

func TestUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "")
	c.baseURL = srv.URL

	_, err := c.UploadFile(context.Background(), strings.NewReader("png"), "a.png", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = c.UploadDataURL(context.Background(), "hello", "u1")
	assert.Error(t, err)
}
