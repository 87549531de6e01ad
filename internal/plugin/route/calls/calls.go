package calls

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
		Order: 150,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts call routes. The caller is always one of the two
// parties.
func MountRoutes(r *gin.Engine, store *care.Store, auth gin.HandlerFunc) {
	g := r.Group("/v1/calls", auth)

	g.POST("", func(c *gin.Context) {
		startCall(c, store)
	})
	g.GET("", func(c *gin.Context) {
		history(c, store)
	})
	g.GET("/:callId", func(c *gin.Context) {
		getCall(c, store)
	})
	g.POST("/:callId/end", func(c *gin.Context) {
		endCall(c, store)
	})
}

func startCall(c *gin.Context, store *care.Store) {
	var req struct {
		CalleeID string `json:"calleeId"`
		CallType string `json:"callType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	call, err := store.StartCall(c.Request.Context(), security.UserID(c), req.CalleeID, req.CallType)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

func getCall(c *gin.Context, store *care.Store) {
	call, err := store.GetCall(c.Request.Context(), c.Param("callId"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func endCall(c *gin.Context, store *care.Store) {
	id := c.Param("callId")
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = string(model.CallStatusCompleted)
	}
	call, err := store.EndCall(c.Request.Context(), id, model.CallStatus(req.Status))
	if err != nil {
		scheduleRepair(store, err, care.EntityRef{Kind: care.EntityCall, ID: id})
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func history(c *gin.Context, store *care.Store) {
	calls, err := store.ListCallHistory(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": calls})
}

func scheduleRepair(store *care.Store, err error, ref care.EntityRef) {
	var partial *care.PartialIndexError
	if errors.As(err, &partial) {
		store.RepairAsync(ref)
	}
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
