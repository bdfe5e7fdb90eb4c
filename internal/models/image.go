package models

import (
	"strings"
	"time"
)

// Category is the fixed set of gallery categories.
type Category string

const (
	CategoryAnime   Category = "Anime"
	CategoryConcept Category = "Concept"
	CategoryFantasy Category = "Fantasy"
	CategoryKaemono Category = "Kaemono"
	CategoryFurry   Category = "Furry"
	CategorySciFi   Category = "Sci-Fi"
	CategoryVtubers Category = "Vtubers"
	CategoryOther   Category = "Other"
)

func Categories() []Category {
	return []Category{
		CategoryAnime,
		CategoryConcept,
		CategoryFantasy,
		CategoryKaemono,
		CategoryFurry,
		CategorySciFi,
		CategoryVtubers,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ImageRecord is one persisted piece of artwork. StoragePath is internal
// to the catalog layer and is stripped before records leave it.
type ImageRecord struct {
	ID          string
	Title       string
	URL         string
	Category    Category
	OwnerID     string
	StoragePath string
	CreatedAt   time.Time
}

// DisplayValid reports whether the record can be shown in the gallery.
// Records without a resolvable URL are skipped before any count or
// pagination computation.
func (r ImageRecord) DisplayValid() bool {
	return strings.TrimSpace(r.URL) != ""
}

// PendingUpload is a file queued for upload. It exists only between file
// selection and submission to the catalog service and is never persisted.
type PendingUpload struct {
	ID          string
	Title       string
	Category    Category
	ContentType string
	FileName    string
	Data        []byte
}

// TitleFromFileName derives a display title by stripping the extension.
func TitleFromFileName(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}
