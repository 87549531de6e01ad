package chat

import (
	"errors"
	"fmt"
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
		Order: 120,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts the client side of messaging. The caller is the
// client; the therapist is named in the path.
func MountRoutes(r *gin.Engine, store *care.Store, auth gin.HandlerFunc) {
	g := r.Group("/v1/messages", auth)

	g.GET("/conversations", func(c *gin.Context) {
		listConversations(c, store)
	})
	g.POST("/:therapistId", func(c *gin.Context) {
		sendMessage(c, store)
	})
	g.GET("/:therapistId", func(c *gin.Context) {
		listMessages(c, store)
	})
	g.POST("/:therapistId/read", func(c *gin.Context) {
		markRead(c, store)
	})
}

func listConversations(c *gin.Context, store *care.Store) {
	conversations, err := store.ListConversations(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conversations})
}

func sendMessage(c *gin.Context, store *care.Store) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := store.SendMessage(c.Request.Context(), security.UserID(c), c.Param("therapistId"), model.SenderUser, req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func listMessages(c *gin.Context, store *care.Store) {
	limit := queryInt(c, "limit", 0)
	msgs, err := store.ListMessages(c.Request.Context(), security.UserID(c), c.Param("therapistId"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func markRead(c *gin.Context, store *care.Store) {
	flipped, err := store.MarkConversationRead(c.Request.Context(), security.UserID(c), c.Param("therapistId"), model.SenderUser)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": flipped})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		return def
	}
	return i
}

func handleError(c *gin.Context, err error) {
	var notFound *care.NotFoundError
	var validation *care.ValidationError
	var participants *care.InvalidParticipantsError
	var partial *care.PartialIndexError
	var unavailable *registrykv.UnavailableError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &participants):
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_participants", "error": err.Error()})
	case errors.As(err, &partial):
		c.JSON(http.StatusInternalServerError, gin.H{"code": "partial_index_failure", "error": err.Error(), "unappliedKeys": partial.Unapplied})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "store_unavailable", "error": "store unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
