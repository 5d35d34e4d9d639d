package http

import (
	"errors"
	"net/http"

	"github.com/davinci-studio/studio-backend/internal/editor/domain"
	"github.com/davinci-studio/studio-backend/internal/editor/service"
	gallerysvc "github.com/davinci-studio/studio-backend/internal/gallery/service"
	"github.com/gin-gonic/gin"
)

// Handler handles editor session requests
type Handler struct {
	manager *service.Manager
	gallery *gallerysvc.Gallery
}

// New creates a new Handler
func New(manager *service.Manager, gallery *gallerysvc.Gallery) *Handler {
	return &Handler{manager: manager, gallery: gallery}
}

// Register registers editor routes on a /sessions/:session_id group
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/editor", h.Open)
	rg.GET("/editor/:editor_id", h.Get)
	rg.PUT("/editor/:editor_id", h.Change)
	rg.POST("/editor/:editor_id/undo", h.Undo)
	rg.POST("/editor/:editor_id/redo", h.Redo)
	rg.POST("/editor/:editor_id/reset", h.Reset)
	rg.DELETE("/editor/:editor_id", h.Close)
}

// Open starts an editor session for an image in the caller's collection
func (h *Handler) Open(c *gin.Context) {
	var body struct {
		ImageID string `json:"image_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_id is required"})
		return
	}

	col, err := h.gallery.Collection(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load images"})
		return
	}
	if _, ok := col.Get(body.ImageID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	s := h.manager.Open(c.Param("session_id"), body.ImageID)
	c.JSON(http.StatusCreated, gin.H{"editor": s.View()})
}

// Get returns the editor state
func (h *Handler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"editor": s.View()})
}

// Change replaces the live parameters; history records after the debounce window
func (h *Handler) Change(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var snap domain.EditorSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := s.Change(snap)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"editor": view})
}

func (h *Handler) Undo(c *gin.Context) {
	h.move(c, (*service.Session).Undo)
}

func (h *Handler) Redo(c *gin.Context) {
	h.move(c, (*service.Session).Redo)
}

func (h *Handler) Reset(c *gin.Context) {
	h.move(c, (*service.Session).Reset)
}

// Close flushes any pending edit and destroys the session
func (h *Handler) Close(c *gin.Context) {
	view, err := h.manager.Close(c.Param("session_id"), c.Param("editor_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"editor": view})
}

func (h *Handler) move(c *gin.Context, op func(*service.Session) (domain.SessionView, error)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	view, err := op(s)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"editor": view})
}

func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	s, err := h.manager.Get(c.Param("session_id"), c.Param("editor_id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "editor session not found"})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": "editor session closed"})
	case errors.Is(err, domain.ErrInvalidSnapshot):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "editor operation failed"})
	}
}
