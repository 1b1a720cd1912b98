package domain

import "time"

// Category is one of the fixed set of gallery sections. The set is closed:
// every item belongs to exactly one of these, and the JSON catalog has one
// property per category.
type Category string

const (
	CategoryPrimary Category = "primary-subject"
	CategoryFamily  Category = "family"
	CategoryFriends Category = "friends"
)

// Categories lists all valid categories in display (and classification
// priority) order.
var Categories = []Category{CategoryPrimary, CategoryFamily, CategoryFriends}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryPrimary, CategoryFamily, CategoryFriends:
		return true
	}
	return false
}

// MediaKind distinguishes images from videos. The media host detects the kind
// on upload; we only carry it through.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Item is one media asset's metadata record. Everything except Category is
// write-once: Category may be corrected during reconciliation so it matches
// the bucket the item sits in.
type Item struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	StorageID string    `json:"storageId"`
	Category  Category  `json:"category"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Format    string    `json:"format"`
	Kind      MediaKind `json:"kind"`
}

// Catalog is the whole gallery: one ordered bucket of items per category.
// Order within a bucket is display order, not significant for correctness.
type Catalog map[Category][]Item

// NewCatalog returns a catalog with an empty bucket for every category.
func NewCatalog() Catalog {
	c := make(Catalog, len(Categories))
	for _, cat := range Categories {
		c[cat] = []Item{}
	}
	return c
}

// Len is the total item count across all buckets.
func (c Catalog) Len() int {
	n := 0
	for _, items := range c {
		n += len(items)
	}
	return n
}

// Find returns the item with the given id and the category bucket holding it.
// IDs are unique catalog-wide, so the first match is the only match.
func (c Catalog) Find(id string) (*Item, Category, bool) {
	for _, cat := range Categories {
		for i := range c[cat] {
			if c[cat][i].ID == id {
				return &c[cat][i], cat, true
			}
		}
	}
	return nil, "", false
}

// Remove deletes the item with the given id from its bucket and reports
// whether it was present.
func (c Catalog) Remove(id string) bool {
	for _, cat := range Categories {
		for i := range c[cat] {
			if c[cat][i].ID == id {
				c[cat] = append(c[cat][:i], c[cat][i+1:]...)
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the buckets to later mutation.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for cat, items := range c {
		bucket := make([]Item, len(items))
		copy(bucket, items)
		out[cat] = bucket
	}
	return out
}

// CheckConsistent verifies the two catalog invariants: every item's Category
// equals the bucket it is stored under, and ids are unique across the whole
// catalog. It returns the first violation found.
func (c Catalog) CheckConsistent() error {
	seen := make(map[string]struct{}, c.Len())
	for _, cat := range Categories {
		for _, item := range c[cat] {
			if item.Category != cat {
				return &ConsistencyError{ID: item.ID, Bucket: cat, Category: item.Category}
			}
			if _, dup := seen[item.ID]; dup {
				return &ConsistencyError{ID: item.ID, Bucket: cat, Duplicate: true}
			}
			seen[item.ID] = struct{}{}
		}
	}
	return nil
}
