package handler

import (
	"net/http"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/gin-gonic/gin"
)

// UserHandler serves profile read/update endpoints. Grounded on
// original_source/src/api/requests.rs's UpdateUserRequest{user, username}.
type UserHandler struct {
	eng *engine.Engine
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(eng *engine.Engine) *UserHandler {
	return &UserHandler{eng: eng}
}

// UpdateUser godoc
// POST /api/users/:user
// Body: {"access":{...},"username":"..."}
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user := domain.PubKey(c.Param("user"))
	var body struct {
		Access   domain.AccessRequest `json:"access"   binding:"required"`
		Username *string              `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.UpdateUser(c.Request.Context(), user, body.Username, body.Access); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

// GetUsername godoc
// GET /api/users/:user/username
// Unauthenticated, matching the reference implementation.
func (h *UserHandler) GetUsername(c *gin.Context) {
	user := domain.PubKey(c.Param("user"))
	name, err := h.eng.GetUsername(c.Request.Context(), user)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"username": name})
}

// GetUser godoc
// GET /api/users/:user?access.user=..&access.challenge=..&access.sig=..
func (h *UserHandler) GetUser(c *gin.Context) {
	user := domain.PubKey(c.Param("user"))
	access := accessFromQuery(c)

	u, err := h.eng.GetUser(c.Request.Context(), user, access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, u.ToResponse())
}
