package therapist

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
		Order: 130,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts the therapist-facing views and the therapist side of
// messaging. The authenticated caller is the therapist.
func MountRoutes(r *gin.Engine, store *care.Store, auth gin.HandlerFunc) {
	g := r.Group("/v1/therapist", auth)

	g.GET("/clients", func(c *gin.Context) {
		clientRoster(c, store)
	})
	g.GET("/inbox", func(c *gin.Context) {
		inbox(c, store)
	})
	g.GET("/dashboard", func(c *gin.Context) {
		dashboard(c, store)
	})

	g.GET("/messages/:clientId", func(c *gin.Context) {
		listMessages(c, store)
	})
	g.POST("/messages/:clientId", func(c *gin.Context) {
		reply(c, store)
	})
	g.POST("/messages/:clientId/read", func(c *gin.Context) {
		markRead(c, store)
	})
	g.POST("/conversations/:clientId/archive", func(c *gin.Context) {
		archive(c, store)
	})

	g.POST("/notes", func(c *gin.Context) {
		createNote(c, store)
	})
	g.GET("/notes", func(c *gin.Context) {
		listNotes(c, store)
	})
}

func clientRoster(c *gin.Context, store *care.Store) {
	roster, err := store.ClientRoster(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": roster})
}

func inbox(c *gin.Context, store *care.Store) {
	items, err := store.Inbox(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func dashboard(c *gin.Context, store *care.Store) {
	stats, err := store.Dashboard(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func listMessages(c *gin.Context, store *care.Store) {
	msgs, err := store.ListMessages(c.Request.Context(), c.Param("clientId"), security.UserID(c), 0)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func reply(c *gin.Context, store *care.Store) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := store.SendMessage(c.Request.Context(), c.Param("clientId"), security.UserID(c), model.SenderTherapist, req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func markRead(c *gin.Context, store *care.Store) {
	flipped, err := store.MarkConversationRead(c.Request.Context(), c.Param("clientId"), security.UserID(c), model.SenderTherapist)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": flipped})
}

func archive(c *gin.Context, store *care.Store) {
	var req struct {
		Archived bool `json:"archived"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv, err := store.ArchiveConversation(c.Request.Context(), c.Param("clientId"), security.UserID(c), req.Archived)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func createNote(c *gin.Context, store *care.Store) {
	var req struct {
		ClientID string `json:"clientId"`
		Text     string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note, err := store.CreateClientNote(c.Request.Context(), model.ClientNote{
		TherapistID: security.UserID(c),
		ClientID:    req.ClientID,
		Text:        req.Text,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func listNotes(c *gin.Context, store *care.Store) {
	notes, err := store.ListClientNotes(c.Request.Context(), security.UserID(c), c.Query("clientId"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notes})
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
