package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriam-site/memoriam/internal/domain"
	"github.com/memoriam-site/memoriam/internal/index"
	"github.com/memoriam-site/memoriam/internal/mediahost"
	"github.com/memoriam-site/memoriam/internal/service"
	"github.com/memoriam-site/memoriam/internal/web"
)

// memHost is a minimal in-memory media host for wiring a real service under
// the HTTP layer.
type memHost struct {
	mu       sync.Mutex
	listing  map[string][]mediahost.Object
	counter  int
	failNext bool
	pingErr  error
	deleted  []string
}

func newMemHost() *memHost {
	return &memHost{listing: make(map[string][]mediahost.Object)}
}

func (h *memHost) List(_ context.Context, prefix string) ([]mediahost.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listing[prefix], nil
}

func (h *memHost) Upload(_ context.Context, data []byte, folder string) (*mediahost.UploadResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failNext {
		h.failNext = false
		return nil, fmt.Errorf("injected upload failure")
	}
	h.counter++
	id := fmt.Sprintf("%s/m%d", folder, h.counter)
	return &mediahost.UploadResult{
		StorageID: id,
		URL:       "https://cdn.example/" + id + ".jpg",
		Width:     640,
		Height:    480,
		Format:    "jpg",
		Kind:      domain.KindImage,
	}, nil
}

func (h *memHost) Delete(_ context.Context, storageID string, _ domain.MediaKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, storageID)
	return nil
}

func (h *memHost) Ping(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pingErr
}

func (h *memHost) setPingErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pingErr = err
}

func (h *memHost) deletedIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

func newTestServer(t *testing.T) (*httptest.Server, *memHost) {
	t.Helper()
	host := newMemHost()

	store, err := index.Open(filepath.Join(t.TempDir(), "catalog.json"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	logger := slog.New(slog.DiscardHandler)
	svc := service.NewGalleryService(store, host, nil, "memorial", logger)
	srv := httptest.NewServer(web.NewServer(svc, logger))
	t.Cleanup(srv.Close)
	return srv, host
}

// multipartUpload builds a POST /upload body with the given files and fields.
func multipartUpload(t *testing.T, files [][]byte, fields map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, data := range files {
		part, err := w.CreateFormFile("files", fmt.Sprintf("photo%d.jpg", i))
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(t *testing.T, method, url string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestUploadThenReadBack(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartUpload(t, [][]byte{[]byte("jpegbytes")}, map[string][]string{
		"category": {"family"},
		"caption":  {"hello"},
	})
	resp := do(t, http.MethodPost, srv.URL+"/upload", body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	uploaded := decode[struct {
		Items []domain.Item `json:"items"`
	}](t, resp)
	require.Len(t, uploaded.Items, 1)
	assert.NotEmpty(t, uploaded.Items[0].ID)
	assert.Equal(t, "hello", uploaded.Items[0].Caption)

	resp = do(t, http.MethodGet, srv.URL+"/images/family", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bucket := decode[[]domain.Item](t, resp)
	require.Len(t, bucket, 1)
	assert.Equal(t, uploaded.Items[0].ID, bucket[0].ID)
	assert.Equal(t, "hello", bucket[0].Caption)
}

func TestListImagesReconcilesFromHost(t *testing.T) {
	srv, host := newTestServer(t)
	host.listing["memorial/friends"] = []mediahost.Object{{
		StorageID: "memorial/friends/picnic",
		URL:       "https://cdn.example/picnic.jpg",
		CreatedAt: time.Unix(1600000000, 0),
		Width:     800, Height: 600, Format: "jpg", Kind: domain.KindImage,
	}}

	resp := do(t, http.MethodGet, srv.URL+"/images", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	catalog := decode[map[domain.Category][]domain.Item](t, resp)
	require.Len(t, catalog[domain.CategoryFriends], 1)
	assert.Equal(t, "memorial/friends/picnic", catalog[domain.CategoryFriends][0].StorageID)
}

func TestUnknownCategoryReturnsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/images/vacation", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.Item](t, resp))
}

func TestUploadInvalidCategory(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartUpload(t, [][]byte{[]byte("x")}, map[string][]string{
		"category": {"vacation"},
	})
	resp := do(t, http.MethodPost, srv.URL+"/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	envelope := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, resp)
	assert.Equal(t, "validation", envelope.Error.Code)
}

func TestUploadNoFiles(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartUpload(t, nil, map[string][]string{"category": {"family"}})
	resp := do(t, http.MethodPost, srv.URL+"/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadPartialFailure(t *testing.T) {
	srv, host := newTestServer(t)
	host.failNext = true

	body, ct := multipartUpload(t, [][]byte{[]byte("a"), []byte("b")}, map[string][]string{
		"category": {"friends"},
	})
	resp := do(t, http.MethodPost, srv.URL+"/upload", body, ct)
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)

	result := decode[struct {
		Items  []domain.Item `json:"items"`
		Errors []string      `json:"errors"`
	}](t, resp)
	assert.Len(t, result.Items, 1)
	assert.Len(t, result.Errors, 1)
}

func TestDeleteLifecycle(t *testing.T) {
	srv, host := newTestServer(t)

	body, ct := multipartUpload(t, [][]byte{[]byte("x")}, map[string][]string{
		"category": {"primary-subject"},
	})
	resp := do(t, http.MethodPost, srv.URL+"/upload", body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	uploaded := decode[struct {
		Items []domain.Item `json:"items"`
	}](t, resp)
	id := uploaded.Items[0].ID

	resp = do(t, http.MethodDelete, srv.URL+"/upload/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{uploaded.Items[0].StorageID}, host.deletedIDs())

	resp = do(t, http.MethodDelete, srv.URL+"/upload/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRepair(t *testing.T) {
	srv, _ := newTestServer(t)

	// Nothing persisted yet: repair is a no-op.
	resp := do(t, http.MethodPost, srv.URL+"/admin/repair", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[map[string]int](t, resp)
	assert.Zero(t, result["corrected"])
}

func TestHealthz(t *testing.T) {
	srv, host := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	host.setPingErr(fmt.Errorf("%w: auth", mediahost.ErrUnavailable))
	resp = do(t, http.MethodGet, srv.URL+"/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
