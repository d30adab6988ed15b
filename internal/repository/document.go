package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"flux_irrigation/internal/logger"

	"github.com/google/renameio/v2"
)

// Store is a whole-document JSON store. Update serializes read-modify-write
// cycles within the process; there is no cross-process locking.
type Store[T any] interface {
	Load() T
	Update(fn func(doc *T) bool) T
}

// Document persists one value of T as a JSON file.
//
// Reads never fail: a missing, unreadable or corrupt file yields the
// defaults. Write failures are logged and swallowed, so callers still get
// the in-memory result but durability is not guaranteed.
type Document[T any] struct {
	mu       sync.Mutex
	path     string
	defaults func() T
	migrate  func(*T) bool
	log      *logger.Logger
}

var _ Store[struct{}] = (*Document[struct{}])(nil)

// NewDocument returns a store backed by path. migrate may be nil; when it
// reports a change the upgraded document is written back immediately.
func NewDocument[T any](path string, defaults func() T, migrate func(*T) bool, log *logger.Logger) *Document[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &Document[T]{
		path:     path,
		defaults: defaults,
		migrate:  migrate,
		log:      log,
	}
}

// Path returns the backing file.
func (d *Document[T]) Path() string { return d.path }

// Load returns the current document.
func (d *Document[T]) Load() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// Update loads the document, applies fn and saves the result when fn
// reports a change. The (possibly unsaved) document is returned.
func (d *Document[T]) Update(fn func(doc *T) bool) T {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc := d.load()
	if fn(&doc) {
		_ = d.save(doc)
	}
	return doc
}

func (d *Document[T]) load() T {
	doc := d.defaults()

	data, err := os.ReadFile(d.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.log.Warnw("document_read_failed", "path", d.path, "err", err)
		}
		return doc
	}

	// Decoding onto the defaults backfills keys older files lack.
	if err := json.Unmarshal(data, &doc); err != nil {
		d.log.Warnw("document_corrupt_using_defaults", "path", d.path, "err", err)
		return d.defaults()
	}

	if d.migrate != nil && d.migrate(&doc) {
		d.log.Infow("document_migrated", "path", d.path)
		_ = d.save(doc)
	}
	return doc
}

// save writes via a temp file and rename so readers never see a torn file.
func (d *Document[T]) save(doc T) error {
	err := d.writeFile(doc)
	if err != nil {
		d.log.Errorw("document_write_failed", "path", d.path, "err", err)
	}
	return err
}

func (d *Document[T]) writeFile(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}

	if err := renameio.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", d.path, err)
	}
	return nil
}
