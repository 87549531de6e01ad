package notifications

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellmind/care-service/internal/care"
	"github.com/wellmind/care-service/internal/model"
	registrykv "github.com/wellmind/care-service/internal/registry/kv"
	registryroute "github.com/wellmind/care-service/internal/registry/route"
	"github.com/wellmind/care-service/internal/security"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 140,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts notification routes. All operate on the caller's own
// notifications.
func MountRoutes(r *gin.Engine, store *care.Store, auth gin.HandlerFunc) {
	g := r.Group("/v1/notifications", auth)

	g.GET("", func(c *gin.Context) {
		list(c, store)
	})
	g.POST("", func(c *gin.Context) {
		create(c, store)
	})
	g.POST("/read-all", func(c *gin.Context) {
		markAllRead(c, store)
	})
	g.POST("/:notificationId/read", func(c *gin.Context) {
		markRead(c, store)
	})
	g.DELETE("/:notificationId", func(c *gin.Context) {
		remove(c, store)
	})
	g.DELETE("", func(c *gin.Context) {
		clear(c, store)
	})
}

func list(c *gin.Context, store *care.Store) {
	items, err := store.ListNotifications(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func create(c *gin.Context, store *care.Store) {
	var req struct {
		Type  string `json:"type"`
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := store.CreateNotification(c.Request.Context(), model.Notification{
		UserID: security.UserID(c),
		Type:   req.Type,
		Title:  req.Title,
		Body:   req.Body,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func markRead(c *gin.Context, store *care.Store) {
	n, err := store.MarkNotificationRead(c.Request.Context(), security.UserID(c), c.Param("notificationId"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func markAllRead(c *gin.Context, store *care.Store) {
	flipped, err := store.MarkAllNotificationsRead(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": flipped})
}

func remove(c *gin.Context, store *care.Store) {
	if err := store.DeleteNotification(c.Request.Context(), security.UserID(c), c.Param("notificationId")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func clear(c *gin.Context, store *care.Store) {
	removed, err := store.ClearNotifications(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func handleError(c *gin.Context, err error) {
	var notFound *care.NotFoundError
	var validation *care.ValidationError
	var unavailable *registrykv.UnavailableError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "store_unavailable", "error": "store unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
