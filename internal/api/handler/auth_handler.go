package handler

import (
	"net/http"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves the challenge/response login flow. Grounded on
// original_source/src/api/requests.rs's LoginRequest{user, challenge, sig} —
// this is the one pair of endpoints that bootstraps a session rather than
// carrying one, so unlike every other handler in this package it does not
// take an AccessRequest itself.
type AuthHandler struct {
	eng *engine.Engine
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(eng *engine.Engine) *AuthHandler {
	return &AuthHandler{eng: eng}
}

// CreateChallenge godoc
// POST /api/auth/challenge
// Body: {"user":"<pubkey>"}
func (h *AuthHandler) CreateChallenge(c *gin.Context) {
	var body struct {
		User domain.PubKey `json:"user" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	challenge, err := h.eng.CreateLoginChallenge(c.Request.Context(), body.User)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"challenge": challenge})
}

// Login godoc
// POST /api/auth/login
// Body: {"user":"<pubkey>","challenge":"...","sig":"..."}
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		User      domain.PubKey `json:"user"      binding:"required"`
		Challenge string        `json:"challenge" binding:"required"`
		Sig       string        `json:"sig"       binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.TryLogin(c.Request.Context(), body.User, body.Sig, body.Challenge); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"user":      body.User,
		"challenge": body.Challenge,
	})
}
