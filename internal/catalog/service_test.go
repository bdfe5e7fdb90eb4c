package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animepin/internal/events"
	"animepin/internal/models"
	"animepin/internal/repository"
)

type fakeTable struct {
	records     []models.ImageRecord
	queryErr    error
	deleteErr   error
	queryCalls  int
	insertCalls int
	deleteCalls int
	getCalls    int

	// failInsertAt fails the nth insert (1-indexed); 0 never fails.
	failInsertAt int
}

func (f *fakeTable) Query(_ context.Context, filter repository.ImageFilter) ([]models.ImageRecord, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []models.ImageRecord
	for _, rec := range f.records {
		if filter.TitleContains != "" &&
			!strings.Contains(strings.ToLower(rec.Title), strings.ToLower(filter.TitleContains)) {
			continue
		}
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeTable) Insert(_ context.Context, image models.ImageRecord) (models.ImageRecord, error) {
	f.insertCalls++
	if f.failInsertAt != 0 && f.insertCalls == f.failInsertAt {
		return models.ImageRecord{}, errors.New("constraint violation")
	}
	f.records = append(f.records, image)
	return image, nil
}

func (f *fakeTable) GetByID(_ context.Context, id string) (models.ImageRecord, error) {
	f.getCalls++
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.ImageRecord{}, repository.ErrImageNotFound
}

func (f *fakeTable) DeleteByID(_ context.Context, id string) error {
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrImageNotFound
}

type fakeBlobs struct {
	objects   map[string][]byte
	writeErr  error
	removeErr error
	writes    int
	removes   int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Write(_ context.Context, key string, data []byte, _ string) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobs) Remove(_ context.Context, key string) error {
	f.removes++
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) PublicURLFor(key string) string {
	return "https://cdn.test/animepin-images/" + key
}

func newTestService(table *fakeTable, blobs *fakeBlobs, bus *events.Bus) *Service {
	return NewService(table, blobs, bus, "public", zerolog.Nop())
}

func testUser() *models.User {
	return &models.User{ID: "user-1", Email: "artist@example.com"}
}

func pngUpload(title string) models.PendingUpload {
	return models.PendingUpload{
		ID:          title,
		Title:       title,
		Category:    models.CategoryAnime,
		ContentType: "image/png",
		FileName:    title + ".png",
		Data:        []byte{0x89, 'P', 'N', 'G'},
	}
}

func TestListImagesAppliesBothFilters(t *testing.T) {
	table := &fakeTable{records: []models.ImageRecord{
		{ID: "1", Title: "Starlight", Category: models.CategoryAnime, URL: "a", StoragePath: "public/u/1.png"},
		{ID: "2", Title: "Nebula", Category: models.CategoryAnime, URL: "b"},
		{ID: "3", Title: "Star Guard", Category: models.CategorySciFi, URL: "c"},
	}}
	svc := newTestService(table, newFakeBlobs(), nil)

	got := svc.ListImages(context.Background(), "star", models.CategoryAnime)

	require.Len(t, got, 1)
	assert.Equal(t, "Starlight", got[0].Title)
	assert.Empty(t, got[0].StoragePath, "storage path must not leave the catalog layer")
}

func TestListImagesFailsOpenOnBackendError(t *testing.T) {
	table := &fakeTable{queryErr: errors.New("connection refused")}
	bus := events.NewBus()

	var notices []events.Notice
	bus.Notices.Subscribe(func(n events.Notice) { notices = append(notices, n) })

	svc := newTestService(table, newFakeBlobs(), bus)
	got := svc.ListImages(context.Background(), "", "")

	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.Len(t, notices, 1)
	assert.Equal(t, events.NoticeError, notices[0].Level)
}

func TestUploadRejectsNonImageBeforeAnyRemoteCall(t *testing.T) {
	table := &fakeTable{}
	blobs := newFakeBlobs()
	svc := newTestService(table, blobs, nil)

	upload := pngUpload("notes")
	upload.ContentType = "text/plain"

	_, err := svc.Upload(context.Background(), testUser(), upload)

	assert.ErrorIs(t, err, ErrInvalidFileType)
	assert.Zero(t, blobs.writes)
	assert.Zero(t, table.insertCalls)
}

func TestUploadRejectsOversizedPayload(t *testing.T) {
	table := &fakeTable{}
	blobs := newFakeBlobs()
	svc := newTestService(table, blobs, nil)

	upload := pngUpload("huge")
	upload.Data = make([]byte, MaxUploadBytes+1)

	_, err := svc.Upload(context.Background(), testUser(), upload)

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Zero(t, blobs.writes)
	assert.Zero(t, table.insertCalls)
}

func TestUploadRequiresAuthentication(t *testing.T) {
	svc := newTestService(&fakeTable{}, newFakeBlobs(), nil)

	_, err := svc.Upload(context.Background(), nil, pngUpload("art"))

	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestUploadWritesBlobThenRecord(t *testing.T) {
	table := &fakeTable{}
	blobs := newFakeBlobs()
	svc := newTestService(table, blobs, nil)

	result, err := svc.Upload(context.Background(), testUser(), pngUpload("sunset"))

	require.NoError(t, err)
	assert.Equal(t, "sunset", result.Title)
	assert.Equal(t, models.CategoryAnime, result.Category)

	require.Len(t, table.records, 1)
	rec := table.records[0]
	assert.True(t, strings.HasPrefix(rec.StoragePath, "public/user-1/"), "key namespaced by owner: %s", rec.StoragePath)
	assert.True(t, strings.HasSuffix(rec.StoragePath, ".png"), "extension preserved: %s", rec.StoragePath)
	assert.Equal(t, blobs.PublicURLFor(rec.StoragePath), rec.URL)
	_, stored := blobs.objects[rec.StoragePath]
	assert.True(t, stored)
}

func TestUploadFailedStorageWriteStopsThere(t *testing.T) {
	table := &fakeTable{}
	blobs := newFakeBlobs()
	blobs.writeErr = errors.New("bucket unavailable")
	svc := newTestService(table, blobs, nil)

	_, err := svc.Upload(context.Background(), testUser(), pngUpload("art"))

	assert.ErrorIs(t, err, ErrStorageWriteFailed)
	assert.Zero(t, table.insertCalls)
	assert.Zero(t, blobs.removes)
}

func TestUploadCompensatesBlobOnInsertFailure(t *testing.T) {
	table := &fakeTable{failInsertAt: 1}
	blobs := newFakeBlobs()
	svc := newTestService(table, blobs, nil)

	_, err := svc.Upload(context.Background(), testUser(), pngUpload("art"))

	assert.ErrorIs(t, err, ErrRecordInsertFailed)
	assert.Equal(t, 1, blobs.removes, "compensating delete must run")
	assert.Empty(t, blobs.objects, "no orphaned blob after failed insert")
}

func TestUploadCompensationErrorIsSwallowed(t *testing.T) {
	table := &fakeTable{failInsertAt: 1}
	blobs := newFakeBlobs()
	blobs.removeErr = errors.New("remove failed")
	svc := newTestService(table, blobs, nil)

	_, err := svc.Upload(context.Background(), testUser(), pngUpload("art"))

	assert.ErrorIs(t, err, ErrRecordInsertFailed, "insert failure wins over compensation failure")
}

func TestDeleteRequiresAuthentication(t *testing.T) {
	svc := newTestService(&fakeTable{}, newFakeBlobs(), nil)

	err := svc.Delete(context.Background(), nil, "img-1")

	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestDeleteUnknownImage(t *testing.T) {
	svc := newTestService(&fakeTable{}, newFakeBlobs(), nil)

	err := svc.Delete(context.Background(), testUser(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteForeignImageForbidden(t *testing.T) {
	table := &fakeTable{records: []models.ImageRecord{
		{ID: "img-1", Title: "Theirs", URL: "u", OwnerID: "someone-else", StoragePath: "public/someone-else/a.png"},
	}}
	svc := newTestService(table, newFakeBlobs(), nil)

	err := svc.Delete(context.Background(), testUser(), "img-1")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, table.records, 1, "record list unchanged")
	assert.Zero(t, table.deleteCalls)
}

func TestDeleteOwnerlessImageForbidden(t *testing.T) {
	table := &fakeTable{records: []models.ImageRecord{
		{ID: "img-1", Title: "Legacy", URL: "u"},
	}}
	svc := newTestService(table, newFakeBlobs(), nil)

	err := svc.Delete(context.Background(), testUser(), "img-1")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteRemovesRowThenBlob(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.objects["public/user-1/a.png"] = []byte{1}
	table := &fakeTable{records: []models.ImageRecord{
		{ID: "img-1", Title: "Mine", URL: "u", OwnerID: "user-1", StoragePath: "public/user-1/a.png"},
	}}
	svc := newTestService(table, blobs, nil)

	err := svc.Delete(context.Background(), testUser(), "img-1")

	require.NoError(t, err)
	assert.Empty(t, table.records)
	assert.Empty(t, blobs.objects)
}

func TestDeleteRowFailureLeavesBlobIntact(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.objects["public/user-1/a.png"] = []byte{1}
	table := &fakeTable{
		deleteErr: errors.New("deadlock"),
		records: []models.ImageRecord{
			{ID: "img-1", Title: "Mine", URL: "u", OwnerID: "user-1", StoragePath: "public/user-1/a.png"},
		},
	}
	svc := newTestService(table, blobs, nil)

	err := svc.Delete(context.Background(), testUser(), "img-1")

	assert.ErrorIs(t, err, ErrRecordDeleteFailed)
	assert.Zero(t, blobs.removes, "storage object untouched when the row delete fails")
}

func TestDeleteStorageFailureDoesNotReverseRowDelete(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.objects["public/user-1/a.png"] = []byte{1}
	blobs.removeErr = errors.New("storage down")
	table := &fakeTable{records: []models.ImageRecord{
		{ID: "img-1", Title: "Mine", URL: "u", OwnerID: "user-1", StoragePath: "public/user-1/a.png"},
	}}
	svc := newTestService(table, blobs, nil)

	err := svc.Delete(context.Background(), testUser(), "img-1")

	require.NoError(t, err, "storage cleanup is best-effort")
	assert.Equal(t, 1, blobs.removes, "cleanup attempted")
	assert.Empty(t, table.records)
}
