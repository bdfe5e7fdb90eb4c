package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"animepin/internal/catalog"
	"animepin/internal/gallery"
	"animepin/internal/ids"
	"animepin/internal/media/sniffer"
	"animepin/internal/middleware"
	"animepin/internal/models"
)

type imageResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Category  string    `json:"category,omitempty"`
	OwnerID   string    `json:"ownerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toImageResponse(rec models.ImageRecord) imageResponse {
	return imageResponse{
		ID:        rec.ID,
		Title:     rec.Title,
		URL:       rec.URL,
		Category:  string(rec.Category),
		OwnerID:   rec.OwnerID,
		CreatedAt: rec.CreatedAt,
	}
}

// ListImages serves one page of the gallery. The search term matches
// titles case-insensitively, the category filter matches exactly, and
// both are ANDed. A backend failure degrades to an empty gallery.
func (h HandlerSet) ListImages(c *gin.Context) {
	search := c.Query("search")

	category := models.Category(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_category"})
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_page"})
			return
		}
		page = parsed
	}

	records := h.catalog.ListImages(c.Request.Context(), search, category)
	valid := gallery.FilterValid(records)

	visible := gallery.PageSlice(valid, page)
	resp := make([]imageResponse, 0, len(visible))
	for _, rec := range visible {
		resp = append(resp, toImageResponse(rec))
	}

	c.JSON(http.StatusOK, gin.H{
		"images":     resp,
		"page":       page,
		"totalPages": gallery.TotalPages(len(valid)),
		"total":      len(valid),
	})
}

type uploadedImage struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// UploadImages uploads a multipart batch sequentially. The first failure
// aborts the remaining files; the response always reports how many files
// made it before the failure so partial success is never silent.
func (h HandlerSet) UploadImages(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	category := models.Category(c.PostForm("category"))
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_category"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_form_required"})
		return
	}
	files := form.File["files"]

	var pending []models.PendingUpload
	for _, header := range files {
		contentType := header.Header.Get("Content-Type")

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_file", "file": header.Filename})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_file", "file": header.Filename})
			return
		}

		// Prefer the sniffed type over the declared one when the bytes
		// are recognizable; the declared type still gates acceptance.
		if result, err := sniffer.DetectHead(head(data)); err == nil {
			contentType = result.MIME
		}

		pending = append(pending, models.PendingUpload{
			ID:          ids.New(),
			Title:       models.TitleFromFileName(header.Filename),
			Category:    category,
			ContentType: contentType,
			FileName:    header.Filename,
			Data:        data,
		})
	}

	if len(pending) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_files"})
		return
	}

	uploaded := make([]uploadedImage, 0, len(pending))
	for _, item := range pending {
		result, err := h.catalog.Upload(c.Request.Context(), &user, item)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", user.ID).Str("file", item.FileName).Msg("upload failed")
			c.JSON(uploadErrorStatus(err), gin.H{
				"error":    err.Error(),
				"uploaded": uploaded,
				"failed":   item.FileName,
				"skipped":  len(pending) - len(uploaded) - 1,
			})
			return
		}
		uploaded = append(uploaded, uploadedImage{
			URL:      result.URL,
			Title:    result.Title,
			Category: string(result.Category),
		})
	}

	c.JSON(http.StatusCreated, gin.H{"uploaded": uploaded})
}

func (h HandlerSet) DeleteImage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	imageID := c.Param("id")
	if err := h.catalog.Delete(c.Request.Context(), &user, imageID); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Str("image_id", imageID).Msg("delete failed")
		c.JSON(uploadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": imageID})
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories()})
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, catalog.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrStorageWriteFailed),
		errors.Is(err, catalog.ErrRecordInsertFailed),
		errors.Is(err, catalog.ErrRecordDeleteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
