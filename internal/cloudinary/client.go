// Package cloudinary uploads user avatars to Cloudinary's REST API.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// ErrNotConfigured is returned by a nil or credential-less client.
var ErrNotConfigured = errors.New("image storage not configured")

// Client uploads images into one folder of a cloud.
type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	baseURL   string
	http      *http.Client
	now       func() time.Time
}

// New returns nil when any credential is missing; a nil client answers ErrNotConfigured.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil
	}
	return &Client{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// Image is the part of Cloudinary's upload response the service keeps.
type Image struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// UploadDataURL uploads an image given as a data URL ("data:image/png;base64,...").
// publicID names the asset, so re-uploading replaces the previous image.
func (c *Client) UploadDataURL(ctx context.Context, dataURL, publicID string) (Image, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return Image{}, errors.New("cloudinary: not an image data URL")
	}
	return c.upload(ctx, publicID, func(w *multipart.Writer) error {
		return w.WriteField("file", dataURL)
	})
}

// UploadFile uploads raw image bytes read from r.
func (c *Client) UploadFile(ctx context.Context, r io.Reader, filename, publicID string) (Image, error) {
	return c.upload(ctx, publicID, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, r)
		return err
	})
}

func (c *Client) upload(ctx context.Context, publicID string, file func(*multipart.Writer) error) (Image, error) {
	if c == nil {
		return Image{}, ErrNotConfigured
	}
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"folder":    c.folder,
		"public_id": publicID,
		"overwrite": "true",
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.apiKey

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		if v != "" {
			_ = w.WriteField(k, v)
		}
	}
	if err := file(w); err != nil {
		return Image{}, fmt.Errorf("cloudinary: write file: %w", err)
	}
	w.Close()

	url := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary: request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode, string(body))
	}
	var img Image
	if err := json.Unmarshal(body, &img); err != nil {
		return Image{}, fmt.Errorf("cloudinary: decode response: %w", err)
	}
	return img, nil
}

// sign hashes the non-empty params sorted by name followed by the secret.
// api_key, file and resource_type are never signed.
func (c *Client) sign(params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == "api_key" || k == "file" || k == "resource_type" {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)

	h := sha1.New()
	h.Write([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return fmt.Sprintf("%x", h.Sum(nil))
}
