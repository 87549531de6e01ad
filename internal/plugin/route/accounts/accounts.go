package accounts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellmind/care-service/internal/care"
	"github.com/wellmind/care-service/internal/config"
	"github.com/wellmind/care-service/internal/mailer"
	"github.com/wellmind/care-service/internal/model"
	registrykv "github.com/wellmind/care-service/internal/registry/kv"
	registryroute "github.com/wellmind/care-service/internal/registry/route"
	"github.com/wellmind/care-service/internal/security"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 100,
		Loader: func(r *gin.Engine) error {
			return nil // routes are mounted by the serve command after store init
		},
	})
}

// MountRoutes mounts auth, profile, and settings routes.
// Called after store initialization so the store is available.
func MountRoutes(r *gin.Engine, store *care.Store, cfg *config.Config, mail mailer.Mailer, auth gin.HandlerFunc) {
	r.POST("/v1/auth/signup", func(c *gin.Context) {
		signup(c, store, cfg, mail)
	})
	r.POST("/v1/auth/signin", func(c *gin.Context) {
		signin(c, store)
	})
	r.POST("/v1/auth/verify", func(c *gin.Context) {
		verifyEmail(c, store)
	})
	r.POST("/v1/auth/password/forgot", func(c *gin.Context) {
		forgotPassword(c, store, cfg, mail)
	})
	r.POST("/v1/auth/password/reset", func(c *gin.Context) {
		resetPassword(c, store)
	})

	g := r.Group("/v1", auth)
	g.POST("/auth/signout", func(c *gin.Context) {
		signout(c, store)
	})
	g.POST("/auth/password/change", func(c *gin.Context) {
		changePassword(c, store)
	})
	g.GET("/users/me", func(c *gin.Context) {
		getMe(c, store)
	})
	g.PATCH("/users/me", func(c *gin.Context) {
		updateMe(c, store)
	})
	g.DELETE("/users/me", func(c *gin.Context) {
		deleteMe(c, store)
	})
	g.GET("/profile", func(c *gin.Context) {
		getProfile(c, store)
	})
	g.PUT("/profile", func(c *gin.Context) {
		putProfile(c, store)
	})
	g.GET("/settings", func(c *gin.Context) {
		getSettings(c, store)
	})
	g.PUT("/settings", func(c *gin.Context) {
		putSettings(c, store)
	})
	g.GET("/therapists", func(c *gin.Context) {
		listTherapists(c, store)
	})
	g.GET("/therapists/:id", func(c *gin.Context) {
		getTherapist(c, store)
	})
	g.PUT("/therapists/profile", func(c *gin.Context) {
		putTherapistProfile(c, store)
	})
}

func signup(c *gin.Context, store *care.Store, cfg *config.Config, mail mailer.Mailer) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		UserType string `json:"userType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserType == "" {
		req.UserType = string(model.UserTypeClient)
	}
	u, err := store.SignUp(c.Request.Context(), req.Email, req.Name, req.Password, model.UserType(req.UserType))
	if err != nil {
		handleError(c, err)
		return
	}
	code, err := store.CreateVerificationCode(c.Request.Context(), u.ID, cfg.CodeTTL)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := mail.Send(c.Request.Context(), u.Email, "Verify your email", "Your verification code: "+code.Code); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u.Redacted())
}

func signin(c *gin.Context, store *care.Store) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, token, err := store.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.Redacted(), "accessToken": token})
}

func signout(c *gin.Context, store *care.Store) {
	auth := c.GetHeader("Authorization")
	if len(auth) > len("Bearer ") {
		if err := store.SignOut(c.Request.Context(), auth[len("Bearer "):]); err != nil {
			handleError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func verifyEmail(c *gin.Context, store *care.Store) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := store.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Redacted())
}

func forgotPassword(c *gin.Context, store *care.Store, cfg *config.Config, mail mailer.Mailer) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code, err := store.CreateResetCode(c.Request.Context(), req.Email, cfg.CodeTTL)
	if err != nil {
		// A probe for unknown emails gets the same answer as a known one.
		var notFound *care.NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusOK, gin.H{"status": "sent"})
			return
		}
		handleError(c, err)
		return
	}
	if err := mail.Send(c.Request.Context(), code.Email, "Reset your password", "Your reset code: "+code.Code); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func resetPassword(c *gin.Context, store *care.Store) {
	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := store.ResetPassword(c.Request.Context(), req.Code, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func changePassword(c *gin.Context, store *care.Store) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := store.ChangePassword(c.Request.Context(), security.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "changed"})
}

func getMe(c *gin.Context, store *care.Store) {
	u, err := store.GetUser(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Redacted())
}

func updateMe(c *gin.Context, store *care.Store) {
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := store.UpdateUser(c.Request.Context(), security.UserID(c), req.Name, req.Email)
	if err != nil {
		scheduleRepair(store, err, care.EntityRef{Kind: care.EntityUser, ID: security.UserID(c)})
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Redacted())
}

func deleteMe(c *gin.Context, store *care.Store) {
	id := security.UserID(c)
	if err := store.DeleteUser(c.Request.Context(), id); err != nil {
		scheduleRepair(store, err, care.EntityRef{Kind: care.EntityUser, ID: id})
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func getProfile(c *gin.Context, store *care.Store) {
	p, err := store.GetUserProfile(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func putProfile(c *gin.Context, store *care.Store) {
	var req model.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = security.UserID(c)
	p, err := store.PutUserProfile(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func getSettings(c *gin.Context, store *care.Store) {
	settings, err := store.GetSettings(c.Request.Context(), security.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func putSettings(c *gin.Context, store *care.Store) {
	var req model.UserSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.UserID = security.UserID(c)
	if err := store.PutSettings(c.Request.Context(), req); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func listTherapists(c *gin.Context, store *care.Store) {
	therapists, err := store.ListTherapists(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": therapists})
}

func getTherapist(c *gin.Context, store *care.Store) {
	p, err := store.GetTherapistProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func putTherapistProfile(c *gin.Context, store *care.Store) {
	var req model.TherapistProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = security.UserID(c)
	p, err := store.PutTherapistProfile(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
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
	var conflict *care.ConflictError
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
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &partial):
		c.JSON(http.StatusInternalServerError, gin.H{"code": "partial_index_failure", "error": err.Error(), "unappliedKeys": partial.Unapplied})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "store_unavailable", "error": "store unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
