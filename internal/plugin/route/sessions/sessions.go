package sessions

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
		Order: 110,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts scheduling routes plus the index repair entry point.
func MountRoutes(r *gin.Engine, store *care.Store, auth gin.HandlerFunc) {
	g := r.Group("/v1", auth)

	g.POST("/sessions", func(c *gin.Context) {
		createSession(c, store)
	})
	g.GET("/sessions", func(c *gin.Context) {
		listSessions(c, store)
	})
	g.GET("/sessions/:sessionId", func(c *gin.Context) {
		getSession(c, store)
	})
	g.PATCH("/sessions/:sessionId", func(c *gin.Context) {
		updateSession(c, store)
	})
	g.DELETE("/sessions/:sessionId", func(c *gin.Context) {
		deleteSession(c, store)
	})
	g.POST("/repair", func(c *gin.Context) {
		repairEntity(c, store)
	})
}

func createSession(c *gin.Context, store *care.Store) {
	var req model.Session
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The caller books for themself on whichever side they are on.
	if req.ClientID == "" {
		req.ClientID = security.UserID(c)
	}
	sess, err := store.CreateSession(c.Request.Context(), req)
	if err != nil {
		scheduleRepair(store, err, care.EntityRef{Kind: care.EntitySession, ID: req.ID})
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func listSessions(c *gin.Context, store *care.Store) {
	userID := security.UserID(c)
	date := c.Query("date")

	var sessions []model.Session
	var err error
	if c.Query("as") == "therapist" {
		sessions, err = store.ListTherapistSessions(c.Request.Context(), userID, date)
	} else {
		sessions, err = store.ListClientSessions(c.Request.Context(), userID, date)
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

func getSession(c *gin.Context, store *care.Store) {
	sess, err := store.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func updateSession(c *gin.Context, store *care.Store) {
	id := c.Param("sessionId")
	var req struct {
		Date     *string              `json:"date"`
		Time     *string              `json:"time"`
		Duration *int                 `json:"duration"`
		Type     *string              `json:"type"`
		Status   *model.SessionStatus `json:"status"`
		Notes    *string              `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := store.UpdateSession(c.Request.Context(), id, care.SessionUpdate{
		Date:     req.Date,
		Time:     req.Time,
		Duration: req.Duration,
		Type:     req.Type,
		Status:   req.Status,
		Notes:    req.Notes,
	})
	if err != nil {
		scheduleRepair(store, err, care.EntityRef{Kind: care.EntitySession, ID: id})
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func deleteSession(c *gin.Context, store *care.Store) {
	id := c.Param("sessionId")
	if err := store.DeleteSession(c.Request.Context(), id); err != nil {
		scheduleRepair(store, err, care.EntityRef{Kind: care.EntitySession, ID: id})
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func repairEntity(c *gin.Context, store *care.Store) {
	var req struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := store.Repair(c.Request.Context(), care.EntityRef{Kind: req.Kind, ID: req.ID}); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "repaired"})
}

func scheduleRepair(store *care.Store, err error, ref care.EntityRef) {
	var partial *care.PartialIndexError
	if errors.As(err, &partial) && ref.ID != "" {
		store.RepairAsync(ref)
	}
}

func handleError(c *gin.Context, err error) {
	var notFound *care.NotFoundError
	var validation *care.ValidationError
	var partial *care.PartialIndexError
	var unavailable *registrykv.UnavailableError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &partial):
		c.JSON(http.StatusInternalServerError, gin.H{"code": "partial_index_failure", "error": err.Error(), "unappliedKeys": partial.Unapplied})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "store_unavailable", "error": "store unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
