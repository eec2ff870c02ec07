// internal/controller/auth_controller.go
package controller

import (
	"net/http"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/auth"
	"github.com/engagecrm/engage-backend/internal/httputil"
	"github.com/engagecrm/engage-backend/internal/repository"
)

type AuthController struct {
	Manager  *auth.Manager
	UserRepo repository.UserRepositoryInterface
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	c.Manager.HandleLogin(w, r)
}

func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	c.Manager.HandleCallback(w, r)
}

// CurrentUser returns the stored profile for the authenticated user.
func (c *AuthController) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.NewAuth("not authenticated"))
		return
	}

	user, err := c.UserRepo.GetByID(userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}
