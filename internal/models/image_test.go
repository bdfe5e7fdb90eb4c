package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromFileName(t *testing.T) {
	assert.Equal(t, "sunset over tokyo", TitleFromFileName("sunset over tokyo.png"))
	assert.Equal(t, "archive.tar", TitleFromFileName("archive.tar.gz"))
	assert.Equal(t, "noextension", TitleFromFileName("noextension"))
	assert.Equal(t, ".hidden", TitleFromFileName(".hidden"))
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryAnime.Valid())
	assert.True(t, CategorySciFi.Valid())
	assert.False(t, Category("Landscape").Valid())
	assert.False(t, Category("").Valid())
}

func TestDisplayValid(t *testing.T) {
	assert.True(t, ImageRecord{URL: "https://cdn.test/a.png"}.DisplayValid())
	assert.False(t, ImageRecord{URL: "  "}.DisplayValid())
	assert.False(t, ImageRecord{}.DisplayValid())
}
