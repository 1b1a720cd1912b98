package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memoriam-site/memoriam/internal/caption"
	"github.com/memoriam-site/memoriam/internal/domain"
	"github.com/memoriam-site/memoriam/internal/index"
	"github.com/memoriam-site/memoriam/internal/mediahost"
)

// catalogStore is the subset of index.Store that GalleryService requires.
type catalogStore interface {
	Load() (domain.Catalog, error)
	Save(domain.Catalog) error
}

// GalleryService owns the catalog. Every read-modify-write cycle runs under
// one mutex, so concurrent uploads and deletes cannot clobber each other's
// saves.
type GalleryService struct {
	store      catalogStore
	host       mediahost.MediaHost
	suggester  caption.Suggester // optional; nil disables caption suggestion
	logger     *slog.Logger
	baseFolder string

	mu  sync.Mutex
	now func() time.Time
}

func NewGalleryService(
	store catalogStore,
	host mediahost.MediaHost,
	suggester caption.Suggester,
	baseFolder string,
	logger *slog.Logger,
) *GalleryService {
	return &GalleryService{
		store:      store,
		host:       host,
		suggester:  suggester,
		logger:     logger,
		baseFolder: baseFolder,
		now:        time.Now,
	}
}

// folder is the media host folder holding a category's objects.
func (s *GalleryService) folder(cat domain.Category) string {
	return path.Join(s.baseFolder, string(cat))
}

// Images returns the whole catalog. A missing or empty persisted catalog
// triggers reconciliation against the media host.
func (s *GalleryService) Images(ctx context.Context) (domain.Catalog, error) {
	catalog, err := s.store.Load()
	if err != nil && !errors.Is(err, index.ErrNotFound) {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err == nil && catalog.Len() > 0 {
		return catalog.Clone(), nil
	}
	return s.Reconcile(ctx)
}

// Bucket returns one category's items. Unknown categories yield an empty
// list, not an error.
func (s *GalleryService) Bucket(ctx context.Context, cat domain.Category) ([]domain.Item, error) {
	if !cat.Valid() {
		return []domain.Item{}, nil
	}
	catalog, err := s.Images(ctx)
	if err != nil {
		return nil, err
	}
	return catalog[cat], nil
}

// Reconcile rebuilds the catalog from the media host's current contents. For
// each category the remote listing is authoritative; when the host cannot be
// queried (or reports nothing) a previously persisted non-empty bucket is
// kept rather than lost. The result is persisted before it is returned, so a
// successful reconcile is not repeated on the next read.
func (s *GalleryService) Reconcile(ctx context.Context) (domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, index.ErrNotFound) {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		previous = domain.NewCatalog()
	}

	s.logger.Info("reconcile started", "previous_items", previous.Len())

	catalog := domain.NewCatalog()
	for _, cat := range domain.Categories {
		objects, err := s.host.List(ctx, s.folder(cat))
		if err != nil || len(objects) == 0 {
			if err != nil {
				s.logger.Warn("listing failed, keeping persisted bucket",
					"category", cat, "error", err)
			}
			catalog[cat] = restamp(previous[cat], cat)
			continue
		}

		bucket := make([]domain.Item, 0, len(objects))
		for _, obj := range objects {
			bucket = append(bucket, itemFromObject(obj, cat))
		}
		catalog[cat] = bucket
	}

	if err := catalog.CheckConsistent(); err != nil {
		return nil, fmt.Errorf("reconcile produced a bad catalog: %w", err)
	}
	if err := s.store.Save(catalog); err != nil {
		return nil, fmt.Errorf("failed to persist catalog: %w", err)
	}

	s.logger.Info("reconcile complete", "items", catalog.Len())
	return catalog.Clone(), nil
}

// restamp returns items with their category forced to the bucket they will
// be stored under.
func restamp(items []domain.Item, cat domain.Category) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	for i := range out {
		out[i].Category = cat
	}
	return out
}

// itemFromObject maps one remote object to a catalog item. The bucket being
// synced is authoritative for the category; the host carries no captions.
func itemFromObject(obj mediahost.Object, cat domain.Category) domain.Item {
	return domain.Item{
		ID:        fmt.Sprintf("%s-%d", strings.ReplaceAll(obj.StorageID, "/", "_"), obj.CreatedAt.Unix()),
		URL:       obj.URL,
		StorageID: obj.StorageID,
		Category:  cat,
		CreatedAt: obj.CreatedAt,
		Width:     obj.Width,
		Height:    obj.Height,
		Format:    obj.Format,
		Kind:      obj.Kind,
	}
}

// Repair re-derives every item's category from its declared category and
// storage path, leaving buckets as they are, and returns how many fields it
// corrected. It is the offline companion to Reconcile for catalogs whose
// category fields have drifted.
func (s *GalleryService) Repair(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.store.Load()
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	corrected := 0
	for _, cat := range domain.Categories {
		for i := range catalog[cat] {
			item := &catalog[cat][i]
			want := domain.Classify(item.Category, item.StorageID, cat)
			if want != item.Category {
				s.logger.Info("correcting item category",
					"id", item.ID, "from", item.Category, "to", want)
				item.Category = want
				corrected++
			}
		}
	}

	if corrected > 0 {
		if err := s.store.Save(catalog); err != nil {
			return 0, fmt.Errorf("failed to persist catalog: %w", err)
		}
	}
	return corrected, nil
}

// UploadError reports one failed file in a batch upload.
type UploadError struct {
	Index int
	Err   error
}

func (e UploadError) Error() string {
	return fmt.Sprintf("file %d: %v", e.Index, e.Err)
}

// Upload stores each file with the media host under the category's folder
// and appends an item per success. One file's failure never affects the
// others: only confirmed uploads are committed, failures are reported in the
// second return value. Captions may be omitted, one-per-file, or a single
// caption applied to every file.
func (s *GalleryService) Upload(ctx context.Context, files [][]byte, cat domain.Category, captions []string) ([]domain.Item, []UploadError, error) {
	if !cat.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, cat)
	}
	if len(files) == 0 {
		return nil, nil, domain.ErrNoFiles
	}
	if len(captions) > 1 && len(captions) != len(files) {
		return nil, nil, fmt.Errorf("%w: got %d captions for %d files",
			domain.ErrCaptionMismatch, len(captions), len(files))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, index.ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = domain.NewCatalog()
	}

	var (
		created  []domain.Item
		failures []UploadError
	)
	for i, data := range files {
		if len(data) == 0 {
			failures = append(failures, UploadError{Index: i, Err: domain.ErrNoFiles})
			continue
		}

		res, err := s.host.Upload(ctx, data, s.folder(cat))
		if err != nil {
			s.logger.Error("upload failed", "category", cat, "file", i, "error", err)
			failures = append(failures, UploadError{Index: i, Err: err})
			continue
		}

		id := fmt.Sprintf("%d-%s", s.now().UnixMilli(), uuid.NewString()[:8])
		if _, _, exists := catalog.Find(id); exists {
			failures = append(failures, UploadError{Index: i,
				Err: fmt.Errorf("generated id %q already in catalog", id)})
			continue
		}
		item := domain.Item{
			ID:        id,
			URL:       res.URL,
			StorageID: res.StorageID,
			Category:  cat,
			Caption:   s.captionFor(ctx, captions, i, data, res.Kind),
			CreatedAt: s.now(),
			Width:     res.Width,
			Height:    res.Height,
			Format:    res.Format,
			Kind:      res.Kind,
		}
		catalog[cat] = append(catalog[cat], item)
		created = append(created, item)
	}

	// Only the appended items are validated here: their category matches the
	// bucket by construction and their ids were checked above. A catalog that
	// Repair left with declared-category drift must not block new uploads,
	// since the remote objects already exist by this point.
	if len(created) > 0 {
		if err := s.store.Save(catalog); err != nil {
			return nil, failures, fmt.Errorf("failed to persist catalog: %w", err)
		}
	}

	s.logger.Info("upload complete", "category", cat,
		"created", len(created), "failed", len(failures))
	return created, failures, nil
}

// captionFor picks the caption for file i: positional, broadcast single, or
// a suggested one when the suggester is configured and the file is an image.
func (s *GalleryService) captionFor(ctx context.Context, captions []string, i int, data []byte, kind domain.MediaKind) string {
	switch {
	case len(captions) == 1:
		return captions[0]
	case len(captions) > i:
		return captions[i]
	}
	if s.suggester == nil || kind != domain.KindImage {
		return ""
	}
	text, err := s.suggester.Suggest(ctx, data, http.DetectContentType(data))
	if err != nil {
		s.logger.Warn("caption suggestion failed", "error", err)
		return ""
	}
	return text
}

// Delete removes one item and its remote object. A failed remote delete
// aborts the whole operation with the metadata untouched, so the catalog
// never references objects it merely hopes still exist — and never silently
// forgets objects that do.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.store.Load()
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("%w: %q", domain.ErrItemNotFound, id)
		}
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	found, _, ok := catalog.Find(id)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrItemNotFound, id)
	}
	item := *found // copy before Remove shifts the bucket

	if err := s.host.Delete(ctx, item.StorageID, item.Kind); err != nil {
		// An object the host no longer has is drift, not failure: removing
		// the metadata is exactly the repair.
		if !errors.Is(err, mediahost.ErrObjectMissing) {
			return fmt.Errorf("failed to delete %s from media host: %w", item.StorageID, err)
		}
		s.logger.Warn("remote object already gone, removing metadata",
			"id", id, "storage_id", item.StorageID)
	}

	catalog.Remove(id)
	if err := s.store.Save(catalog); err != nil {
		return fmt.Errorf("failed to persist catalog: %w", err)
	}

	s.logger.Info("item deleted", "id", id, "storage_id", item.StorageID)
	return nil
}

// Health reports whether the media host is reachable.
func (s *GalleryService) Health(ctx context.Context) error {
	return s.host.Ping(ctx)
}
