package handler

import (
	"net/http"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/gin-gonic/gin"
)

// DecisionHandler serves judge vote submission.
type DecisionHandler struct {
	eng *engine.Engine
}

// NewDecisionHandler creates a DecisionHandler.
func NewDecisionHandler(eng *engine.Engine) *DecisionHandler {
	return &DecisionHandler{eng: eng}
}

// MakeDecision godoc
// POST /api/predictions/:id/decision
// Body: {"access":{...},"decision":true}
// Grounded on original_source/src/api/requests.rs's
// MakeDecisionRequest{prediction, judge, decision}; judge is always
// access.user.
func (h *DecisionHandler) MakeDecision(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	var body struct {
		Access   domain.AccessRequest `json:"access"   binding:"required"`
		Decision bool                 `json:"decision"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.MakeDecision(c.Request.Context(), predictionID, body.Access.User, body.Decision, body.Access); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"prediction_id": predictionID, "judge": body.Access.User})
}
