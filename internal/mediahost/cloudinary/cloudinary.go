// Package cloudinary talks to the Cloudinary REST API: the admin API for
// listings and the upload API for mutations.
package cloudinary

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
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/memoriam-site/memoriam/internal/domain"
	"github.com/memoriam-site/memoriam/internal/mediahost"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// maxResults is the admin API page size. Listings larger than one page are
// followed via next_cursor.
const maxResults = 500

type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	now       func() time.Time
}

// New builds a client and validates the credentials are present, so a
// misconfigured deployment fails at startup instead of on the first request.
func New(cloudName, apiKey, apiSecret string, timeout time.Duration) (*Client, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials missing (cloud name, api key, api secret are all required)")
	}
	return &Client{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: timeout},
		now:       time.Now,
	}, nil
}

// resource mirrors the fields of an admin API resource entry we care about.
type resource struct {
	PublicID     string    `json:"public_id"`
	SecureURL    string    `json:"secure_url"`
	CreatedAt    time.Time `json:"created_at"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Format       string    `json:"format"`
	ResourceType string    `json:"resource_type"`
}

func (r resource) toObject() mediahost.Object {
	return mediahost.Object{
		StorageID: r.PublicID,
		URL:       r.SecureURL,
		CreatedAt: r.CreatedAt,
		Width:     r.Width,
		Height:    r.Height,
		Format:    r.Format,
		Kind:      toKind(r.ResourceType),
	}
}

func toKind(resourceType string) domain.MediaKind {
	if resourceType == "video" {
		return domain.KindVideo
	}
	return domain.KindImage
}

// List returns all image and video objects under prefix, following
// next_cursor until the listing is exhausted.
func (c *Client) List(ctx context.Context, prefix string) ([]mediahost.Object, error) {
	var objects []mediahost.Object
	for _, resourceType := range []string{"image", "video"} {
		cursor := ""
		for {
			page, next, err := c.listPage(ctx, resourceType, prefix, cursor)
			if err != nil {
				return nil, err
			}
			objects = append(objects, page...)
			if next == "" {
				break
			}
			cursor = next
		}
	}
	return objects, nil
}

func (c *Client) listPage(ctx context.Context, resourceType, prefix, cursor string) ([]mediahost.Object, string, error) {
	q := url.Values{}
	q.Set("type", "upload")
	q.Set("prefix", prefix)
	q.Set("max_results", strconv.Itoa(maxResults))
	if cursor != "" {
		q.Set("next_cursor", cursor)
	}

	endpoint := fmt.Sprintf("%s/%s/resources/%s?%s", c.baseURL, c.cloudName, resourceType, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create list request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list %s resources: %w: %v", resourceType, mediahost.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, "", fmt.Errorf("list %s resources: %w", resourceType, err)
	}

	var body struct {
		Resources  []resource `json:"resources"`
		NextCursor string     `json:"next_cursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("failed to decode list response: %w", err)
	}

	objects := make([]mediahost.Object, 0, len(body.Resources))
	for _, r := range body.Resources {
		objects = append(objects, r.toObject())
	}
	return objects, body.NextCursor, nil
}

// Upload sends data to the auto-detecting upload endpoint. Cloudinary decides
// whether it is an image or a video and reports dimensions and format back.
func (c *Client) Upload(ctx context.Context, data []byte, folder string) (*mediahost.UploadResult, error) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{
		"folder":    folder,
		"timestamp": ts,
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := w.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.WriteField("signature", c.sign(params)); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := w.CreateFormFile("file", "upload")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/auto/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload: %w: %v", mediahost.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	var body resource
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &mediahost.UploadResult{
		StorageID: body.PublicID,
		URL:       body.SecureURL,
		Width:     body.Width,
		Height:    body.Height,
		Format:    body.Format,
		Kind:      toKind(body.ResourceType),
	}, nil
}

// Delete destroys one object by its public id.
func (c *Client) Delete(ctx context.Context, storageID string, kind domain.MediaKind) error {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{
		"public_id": storageID,
		"timestamp": ts,
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(params))

	resourceType := "image"
	if kind == domain.KindVideo {
		resourceType = "video"
	}
	endpoint := fmt.Sprintf("%s/%s/%s/destroy", c.baseURL, c.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to destroy %s: %w: %v", storageID, mediahost.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("destroy %s: %w", storageID, err)
	}

	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode destroy response: %w", err)
	}
	switch body.Result {
	case "ok":
		return nil
	case "not found":
		return fmt.Errorf("destroy %s: %w", storageID, mediahost.ErrObjectMissing)
	default:
		return fmt.Errorf("destroy %s: host reported %q", storageID, body.Result)
	}
}

// Ping hits the admin ping endpoint, which also exercises the credentials.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/%s/ping", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w: %v", mediahost.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// sign produces the Cloudinary API signature: the request parameters sorted
// by name, joined as a query string, with the secret appended, hashed with
// SHA-1.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

// checkStatus maps HTTP status codes to errors. Auth failures count as the
// host being unavailable since no request will succeed until the credentials
// are fixed.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	errBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", mediahost.ErrUnavailable, resp.StatusCode, errBody)
	}
	return fmt.Errorf("host returned status %d: %s", resp.StatusCode, errBody)
}
