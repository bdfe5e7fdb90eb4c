// Package gallery owns the in-memory view state of the image gallery:
// the loaded list, the current page, the active search/category filters
// and the loading flag. Presentation layers read derived snapshots and
// never mutate the list directly.
package gallery

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"animepin/internal/catalog"
	"animepin/internal/models"
)

// PageSize is the number of images shown per page.
const PageSize = 20

// Catalog is the persistence facade the controller drives.
type Catalog interface {
	ListImages(ctx context.Context, searchQuery string, category models.Category) []models.ImageRecord
	Upload(ctx context.Context, user *models.User, upload models.PendingUpload) (catalog.UploadResult, error)
	Delete(ctx context.Context, user *models.User, imageID string) error
}

// FilterValid keeps only records valid for display, preserving order.
func FilterValid(images []models.ImageRecord) []models.ImageRecord {
	valid := make([]models.ImageRecord, 0, len(images))
	for _, img := range images {
		if img.DisplayValid() {
			valid = append(valid, img)
		}
	}
	return valid
}

// TotalPages is ceil(n / PageSize).
func TotalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

// PageSlice returns the 1-indexed page of valid. Out-of-range pages
// yield an empty slice.
func PageSlice(valid []models.ImageRecord, page int) []models.ImageRecord {
	if page < 1 {
		return nil
	}
	start := (page - 1) * PageSize
	if start >= len(valid) {
		return nil
	}
	end := start + PageSize
	if end > len(valid) {
		end = len(valid)
	}
	return valid[start:end]
}

// View is a derived snapshot of the controller state. It is recomputed on
// demand and never cached; the controller state stays the single source
// of truth.
type View struct {
	Visible     []models.ImageRecord
	Page        int
	TotalPages  int
	TotalValid  int
	SearchQuery string
	Category    models.Category
	Loading     bool
}

type Controller struct {
	catalog Catalog
	log     zerolog.Logger

	mu          sync.Mutex
	images      []models.ImageRecord
	page        int
	searchQuery string
	category    models.Category
	loading     bool
}

func NewController(cat Catalog, log zerolog.Logger) *Controller {
	return &Controller{
		catalog: cat,
		log:     log,
		page:    1,
	}
}

// Load fetches a fresh list for the active filters, replaces the images
// wholesale and resets to the first page.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	query, category := c.searchQuery, c.category
	c.mu.Unlock()

	images := c.catalog.ListImages(ctx, query, category)

	c.mu.Lock()
	c.images = images
	c.page = 1
	c.loading = false
	c.mu.Unlock()
}

// SetSearchQuery changes the search filter, resets to page 1 and reloads.
func (c *Controller) SetSearchQuery(ctx context.Context, query string) {
	c.mu.Lock()
	c.searchQuery = query
	c.page = 1
	c.mu.Unlock()
	c.Load(ctx)
}

// SetCategory changes the category filter, resets to page 1 and reloads.
// An empty category clears the filter.
func (c *Controller) SetCategory(ctx context.Context, category models.Category) {
	c.mu.Lock()
	c.category = category
	c.page = 1
	c.mu.Unlock()
	c.Load(ctx)
}

// SetPage moves to page, clamped to the valid range.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	max := TotalPages(len(FilterValid(c.images)))
	if max < 1 {
		max = 1
	}
	if page < 1 {
		page = 1
	}
	if page > max {
		page = max
	}
	c.page = page
}

// UploadBatch uploads the pending items one at a time. The first failure
// aborts the remaining items and is returned along with how many items
// were uploaded before it. On full success the list is reloaded so
// server-assigned fields are authoritative.
func (c *Controller) UploadBatch(ctx context.Context, user *models.User, uploads []models.PendingUpload) (int, error) {
	for i, upload := range uploads {
		if _, err := c.catalog.Upload(ctx, user, upload); err != nil {
			c.log.Error().Err(err).Str("title", upload.Title).Msg("batch upload aborted")
			return i, err
		}
	}
	c.Load(ctx)
	return len(uploads), nil
}

// Delete removes the record through the catalog and, on success, drops it
// from the loaded list in place. No reload: delete reconciles no
// server-assigned fields.
func (c *Controller) Delete(ctx context.Context, user *models.User, imageID string) error {
	if err := c.catalog.Delete(ctx, user, imageID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.images[:0]
	for _, img := range c.images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	c.images = kept
	return nil
}

// Snapshot derives the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	valid := FilterValid(c.images)
	return View{
		Visible:     PageSlice(valid, c.page),
		Page:        c.page,
		TotalPages:  TotalPages(len(valid)),
		TotalValid:  len(valid),
		SearchQuery: c.searchQuery,
		Category:    c.category,
		Loading:     c.loading,
	}
}
