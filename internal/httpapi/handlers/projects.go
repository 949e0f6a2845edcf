package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mhd-br/void-studio/internal/canvas"
	"github.com/mhd-br/void-studio/internal/store"
)

// Projects exposes snapshot persistence over REST. This is the
// project-persistence collaborator: the sync relay never touches it, the
// client saves and loads through it.
type Projects struct {
	store store.ProjectStore
}

func NewProjects(s store.ProjectStore) *Projects {
	return &Projects{store: s}
}

func (h *Projects) Register(rg *gin.RouterGroup) {
	rg.POST("/projects", h.save)
	rg.GET("/projects", h.list)
	rg.GET("/projects/:id", h.load)
	rg.DELETE("/projects/:id", h.delete)
}

func (h *Projects) save(c *gin.Context) {
	var snap canvas.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot payload"})
		return
	}
	if snap.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}
	if err := h.store.Save(c.Request.Context(), snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      snap.ProjectID,
		"savedAt": time.Now().UnixMilli(),
	})
}

func (h *Projects) list(c *gin.Context) {
	infos, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": infos})
}

func (h *Projects) load(c *gin.Context) {
	snap, err := h.store.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Projects) delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
