package http

import (
	"errors"
	"net/http"

	"github.com/davinci-studio/studio-backend/internal/gallery/domain"
	"github.com/davinci-studio/studio-backend/internal/gallery/service"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for a session's image collection
type Handler struct {
	gallery *service.Gallery
}

// New creates a new Handler
func New(gallery *service.Gallery) *Handler {
	return &Handler{gallery: gallery}
}

// Register registers the gallery routes on a /sessions/:session_id group
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/images", h.ListImages)
	rg.DELETE("/images/:image_id", h.DeleteImage)
	rg.POST("/images/:image_id/bookmark", h.ToggleBookmark)
}

// ListImages returns the collection; ?bookmarked=true restricts it to bookmarks
func (h *Handler) ListImages(c *gin.Context) {
	sessionID := c.Param("session_id")
	col, err := h.gallery.Collection(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load images"})
		return
	}

	images := col.Images()
	if c.Query("bookmarked") == "true" {
		images = col.Bookmarked()
	}
	c.JSON(http.StatusOK, gin.H{
		"images":    images,
		"bookmarks": col.BookmarkIDs(),
	})
}

// DeleteImage removes an image from the session
func (h *Handler) DeleteImage(c *gin.Context) {
	sessionID := c.Param("session_id")
	imageID := c.Param("image_id")

	if err := h.gallery.Delete(c.Request.Context(), sessionID, imageID); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted successfully"})
}

// ToggleBookmark flips the bookmark state of an image
func (h *Handler) ToggleBookmark(c *gin.Context) {
	sessionID := c.Param("session_id")
	imageID := c.Param("image_id")

	on, err := h.gallery.ToggleBookmark(c.Request.Context(), sessionID, imageID)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle bookmark"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_id": imageID, "bookmarked": on})
}
