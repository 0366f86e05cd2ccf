package handler

import (
	"net/http"
	"strconv"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/gin-gonic/gin"
)

// CashOutHandler serves withdrawal-invoice binding and cash-out queries for
// resolved predictions.
type CashOutHandler struct {
	eng *engine.Engine
}

// NewCashOutHandler creates a CashOutHandler.
func NewCashOutHandler(eng *engine.Engine) *CashOutHandler {
	return &CashOutHandler{eng: eng}
}

// CashOutUser godoc
// POST /api/predictions/:id/cash-out
// Body: {"access":{...},"invoice":"..."}
// Grounded on original_source/src/api/requests.rs's
// CashOutUserRequest{prediction, user, invoice}; user is always access.user.
func (h *CashOutHandler) CashOutUser(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	var body struct {
		Access  domain.AccessRequest `json:"access"  binding:"required"`
		Invoice string               `json:"invoice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := h.eng.CashOutUser(c.Request.Context(), predictionID, body.Access.User, body.Invoice, body.Access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"amount": amount})
}

// GetCashOut godoc
// GET /api/predictions/:id/cash-out?access.user=..&access.challenge=..&access.sig=..
func (h *CashOutHandler) GetCashOut(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	access := accessFromQuery(c)

	resp, err := h.eng.GetCashOut(c.Request.Context(), predictionID, access.User, access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}

// GetCashOuts godoc
// GET /api/cash-outs?prediction_id=1&user=<pubkey>&access.user=..&access.challenge=..&access.sig=..
// Listing across all users requires an Admin/Root caller.
func (h *CashOutHandler) GetCashOuts(c *gin.Context) {
	var predictionID *domain.RowId
	if raw := c.Query("prediction_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid prediction_id")
			return
		}
		id := domain.RowId(n)
		predictionID = &id
	}
	var user *domain.PubKey
	if raw := c.Query("user"); raw != "" {
		u := domain.PubKey(raw)
		user = &u
	}
	access := accessFromQuery(c)

	cashOuts, err := h.eng.GetCashOuts(c.Request.Context(), predictionID, user, access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, cashOuts)
}
