// Package cdn uploads product images to Cloudinary.
package cdn

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAPIBase = "https://api.cloudinary.com/v1_1"
	defaultFolder  = "choriweb_productos"
	uploadTimeout  = 30 * time.Second
)

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// APIBase overrides the Cloudinary endpoint root.
	APIBase string
}

// Cloudinary performs signed image uploads.
type Cloudinary struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

func NewCloudinary(cfg Config) *Cloudinary {
	if cfg.Folder == "" {
		cfg.Folder = defaultFolder
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &Cloudinary{cfg: cfg, client: &http.Client{Timeout: uploadTimeout}, now: time.Now}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload stores the image and returns its https URL.
func (c *Cloudinary) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	params := map[string]string{
		"folder":    c.cfg.Folder,
		"public_id": "product-" + uuid.NewString(),
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("cloudinary form: %w", err)
		}
	}
	if err := mw.WriteField("api_key", c.cfg.APIKey); err != nil {
		return "", fmt.Errorf("cloudinary form: %w", err)
	}
	if err := mw.WriteField("signature", sign(params, c.cfg.APISecret)); err != nil {
		return "", fmt.Errorf("cloudinary form: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("cloudinary form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("cloudinary read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("cloudinary form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(c.cfg.APIBase, "/"), c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("cloudinary request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("cloudinary decode (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.SecureURL == "" {
		msg := "no secure_url in response"
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("cloudinary upload: status %d: %s", resp.StatusCode, msg)
	}
	return out.SecureURL, nil
}

// sign builds the SHA-1 request signature: sorted key=value pairs joined by
// '&' followed by the API secret.
func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
