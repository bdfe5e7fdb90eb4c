package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"animepin/internal/events"
)

type panelContent struct {
	Title string   `json:"title"`
	Body  []string `json:"body"`
}

var panels = map[events.PanelID]panelContent{
	events.PanelAbout: {
		Title: "About AnimePin",
		Body: []string{
			"AnimePin is a community gallery for anime-style artwork.",
			"Browse by category, search by title, and share your own work.",
		},
	},
	events.PanelTerms: {
		Title: "Terms of Service",
		Body: []string{
			"Only upload artwork you have the right to share.",
			"Uploads are limited to image files of at most 5MB.",
			"You may remove your own uploads at any time.",
		},
	},
	events.PanelPrivacy: {
		Title: "Privacy Policy",
		Body: []string{
			"We store your email address and the images you upload.",
			"Uploaded images are publicly visible in the gallery.",
		},
	},
	events.PanelContact: {
		Title: "Contact",
		Body: []string{
			"Questions or takedown requests: contact@animepin.example",
		},
	},
}

// ShowPanel serves the static info panels linked from the page footer.
func (h HandlerSet) ShowPanel(c *gin.Context) {
	id := events.PanelID(c.Param("panel"))
	if !id.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_panel"})
		return
	}

	h.bus.PanelRequested.Publish(id)

	c.JSON(http.StatusOK, gin.H{"panel": id, "content": panels[id]})
}
