// Package catalog implements the image catalog workflow: filtered listing,
// upload with a compensating storage delete, and ownership-checked delete.
// The service is stateless between calls.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"animepin/internal/events"
	"animepin/internal/ids"
	"animepin/internal/models"
	"animepin/internal/repository"
)

// MaxUploadBytes is the upload size ceiling (5 MiB).
const MaxUploadBytes = 5 * 1024 * 1024

// TableStore is the image table the service writes records to.
type TableStore interface {
	Query(ctx context.Context, filter repository.ImageFilter) ([]models.ImageRecord, error)
	Insert(ctx context.Context, image models.ImageRecord) (models.ImageRecord, error)
	GetByID(ctx context.Context, id string) (models.ImageRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

// BlobStore is the object store holding the image payloads.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURLFor(key string) string
}

type Service struct {
	tables    TableStore
	blobs     BlobStore
	bus       *events.Bus
	keyPrefix string
	log       zerolog.Logger
}

func NewService(tables TableStore, blobs BlobStore, bus *events.Bus, keyPrefix string, log zerolog.Logger) *Service {
	if keyPrefix == "" {
		keyPrefix = "public"
	}
	return &Service{
		tables:    tables,
		blobs:     blobs,
		bus:       bus,
		keyPrefix: keyPrefix,
		log:       log,
	}
}

// ListImages returns displayable records newest first, optionally filtered
// by a case-insensitive title substring and an exact category. A backend
// failure is reported as a notice and yields an empty list: an empty
// gallery is the preferred degraded state. Storage paths never leave the
// catalog layer.
func (s *Service) ListImages(ctx context.Context, searchQuery string, category models.Category) []models.ImageRecord {
	records, err := s.tables.Query(ctx, repository.ImageFilter{
		TitleContains: strings.TrimSpace(searchQuery),
		Category:      category,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("list images failed")
		s.bus.Notify(events.NoticeError, "Failed to fetch images. Please try again later.")
		return []models.ImageRecord{}
	}

	public := make([]models.ImageRecord, 0, len(records))
	for _, rec := range records {
		rec.StoragePath = ""
		public = append(public, rec)
	}
	return public
}

// UploadResult reports a completed upload.
type UploadResult struct {
	URL      string
	Title    string
	Category models.Category
}

// Upload validates the payload, writes it to the object store under a
// collision-resistant key, and inserts the catalog record. If the insert
// fails the just-written object is removed best-effort, so a failed upload
// leaves no orphaned blob behind.
func (s *Service) Upload(ctx context.Context, user *models.User, upload models.PendingUpload) (UploadResult, error) {
	if user == nil || user.ID == "" {
		return UploadResult{}, ErrAuthRequired
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return UploadResult{}, ErrInvalidFileType
	}
	if int64(len(upload.Data)) > MaxUploadBytes {
		return UploadResult{}, ErrFileTooLarge
	}

	key := s.buildObjectKey(user.ID, upload.FileName)

	if err := s.blobs.Write(ctx, key, upload.Data, upload.ContentType); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("storage write failed")
		return UploadResult{}, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}

	url := s.blobs.PublicURLFor(key)

	record := models.ImageRecord{
		ID:          ids.New(),
		Title:       upload.Title,
		URL:         url,
		StoragePath: key,
		Category:    upload.Category,
		OwnerID:     user.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.tables.Insert(ctx, record); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("record insert failed")
		if rmErr := s.blobs.Remove(ctx, key); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", key).Msg("compensating delete failed")
		}
		return UploadResult{}, fmt.Errorf("%w: %v", ErrRecordInsertFailed, err)
	}

	return UploadResult{
		URL:      url,
		Title:    upload.Title,
		Category: upload.Category,
	}, nil
}

// Delete removes a record the caller owns, database row first. A failed
// row delete leaves the storage object intact; a failed storage cleanup
// after the row is gone is logged and swallowed, since a dangling blob is
// the lesser failure mode next to a broken URL on a still-listed image.
func (s *Service) Delete(ctx context.Context, user *models.User, imageID string) error {
	if user == nil || user.ID == "" {
		return ErrAuthRequired
	}

	record, err := s.tables.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("fetch image: %w", err)
	}

	// Ownerless records are not deletable by anyone.
	if record.OwnerID == "" || record.OwnerID != user.ID {
		return ErrForbidden
	}

	if err := s.tables.DeleteByID(ctx, imageID); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordDeleteFailed, err)
	}

	if record.StoragePath != "" {
		if err := s.blobs.Remove(ctx, record.StoragePath); err != nil {
			s.log.Warn().Err(err).Str("key", record.StoragePath).Msg("storage cleanup failed")
		}
	}

	return nil
}

// buildObjectKey namespaces the key by owner and keeps the original
// extension: <prefix>/<userID>/<millis>-<token>.<ext>
func (s *Service) buildObjectKey(userID string, fileName string) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), ids.New())
	if ext != "" {
		name = name + "." + strings.ToLower(ext)
	}
	return path.Join(s.keyPrefix, userID, name)
}
