// memoriam-import is a one-shot migration tool: it reads the legacy sqlite
// gallery database and writes the JSON catalog the server uses today.
//
// Expected legacy schema:
//
//	CREATE TABLE photos (
//	    url        TEXT NOT NULL,
//	    public_id  TEXT NOT NULL,
//	    category   TEXT,
//	    caption    TEXT,
//	    created_at INTEGER NOT NULL, -- unix seconds
//	    width      INTEGER,
//	    height     INTEGER,
//	    format     TEXT,
//	    kind       TEXT
//	);
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/memoriam-site/memoriam/internal/domain"
	"github.com/memoriam-site/memoriam/internal/index"
)

func main() {
	dbPath := flag.String("db", "", "path to the legacy sqlite database")
	outPath := flag.String("out", "catalog.json", "path of the JSON catalog to write")
	defaultCategory := flag.String("default-category", "family",
		"category for rows that cannot be classified from their data")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("-db is required")
	}
	fallback := domain.Category(*defaultCategory)
	if !fallback.Valid() {
		log.Fatalf("invalid -default-category %q", *defaultCategory)
	}

	catalog, rows, err := importLegacy(context.Background(), *dbPath, fallback)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	store, err := index.Open(*outPath)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close catalog: %v", err)
		}
	}()

	if err := store.Save(catalog); err != nil {
		log.Fatalf("failed to write catalog: %v", err)
	}
	fmt.Printf("imported %d of %d rows into %s\n", catalog.Len(), rows, *outPath)
}

// importLegacy reads every photo row and buckets it by its classified
// category. Rows with an invalid stored category are classified from their
// public id path, then the fallback.
func importLegacy(ctx context.Context, dbPath string, fallback domain.Category) (domain.Catalog, int, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to ping database: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT url, public_id, COALESCE(category, ''), COALESCE(caption, ''),
		       created_at, COALESCE(width, 0), COALESCE(height, 0),
		       COALESCE(format, ''), COALESCE(kind, 'image')
		FROM photos ORDER BY created_at
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	catalog := domain.NewCatalog()
	count := 0
	for rows.Next() {
		var (
			url, publicID, category, caption, format, kind string
			createdAt                                      int64
			width, height                                  int
		)
		if err := rows.Scan(&url, &publicID, &category, &caption,
			&createdAt, &width, &height, &format, &kind); err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}
		count++

		cat := domain.Classify(domain.Category(category), publicID, fallback)
		item := domain.Item{
			ID:        fmt.Sprintf("%s-%d", strings.ReplaceAll(publicID, "/", "_"), createdAt),
			URL:       url,
			StorageID: publicID,
			Category:  cat,
			Caption:   caption,
			CreatedAt: time.Unix(createdAt, 0).UTC(),
			Width:     width,
			Height:    height,
			Format:    format,
			Kind:      domain.MediaKind(kind),
		}
		catalog[cat] = append(catalog[cat], item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}

	if err := catalog.CheckConsistent(); err != nil {
		return nil, 0, err
	}
	return catalog, count, nil
}
