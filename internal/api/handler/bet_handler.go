package handler

import (
	"net/http"
	"strconv"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/gin-gonic/gin"
)

// BetHandler serves bet placement, settlement-check, cancellation and
// listing endpoints.
type BetHandler struct {
	eng *engine.Engine
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(eng *engine.Engine) *BetHandler {
	return &BetHandler{eng: eng}
}

// AddBet godoc
// POST /api/predictions/:id/bets
// Body: {"access":{...},"side":true}
// Grounded on original_source/src/api/requests.rs's AddBetRequest{prediction,
// user, bet}; user here is always access.user since a caller only ever bets
// for themself.
func (h *BetHandler) AddBet(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	var body struct {
		Access domain.AccessRequest `json:"access" binding:"required"`
		Side   bool                 `json:"side"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	invoice, err := h.eng.AddBet(c.Request.Context(), predictionID, body.Access.User, body.Side, body.Access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"invoice": invoice})
}

// CheckBet godoc
// POST /api/bets/check
// Body: {"access":{...},"invoice":"..."}
// Reconciles a funding invoice against the payment oracle and, if now
// Settled, finalises the bet and re-runs the lazy market transitions.
func (h *BetHandler) CheckBet(c *gin.Context) {
	var body struct {
		Access  domain.AccessRequest `json:"access"  binding:"required"`
		Invoice string               `json:"invoice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.eng.CheckBet(c.Request.Context(), body.Invoice, body.Access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"state": state})
}

// CancelBet godoc
// POST /api/bets/cancel
// Body: {"access":{...},"invoice":"...","refund_invoice":"..."}
func (h *BetHandler) CancelBet(c *gin.Context) {
	var body struct {
		Access        domain.AccessRequest `json:"access"         binding:"required"`
		Invoice       string               `json:"invoice"        binding:"required"`
		RefundInvoice string               `json:"refund_invoice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.eng.CancelBet(c.Request.Context(), body.Invoice, body.RefundInvoice, body.Access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"state": state})
}

// PayBet godoc
// POST /api/admin/bets/pay [Admin]
// Body: {"access":{...},"invoice":"...","amount":1000}
func (h *BetHandler) PayBet(c *gin.Context) {
	var body struct {
		Access  domain.AccessRequest `json:"access"  binding:"required"`
		Invoice string               `json:"invoice" binding:"required"`
		Amount  domain.Sats          `json:"amount"  binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.PayBet(c.Request.Context(), body.Invoice, body.Amount, body.Access); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"invoice": body.Invoice})
}

// GetBets godoc
// GET /api/bets?prediction_id=1&user=<pubkey>&access.user=..&access.challenge=..&access.sig=..
// Listing across all users requires an Admin/Root caller; listing a single
// user's bets requires that user's own access.
func (h *BetHandler) GetBets(c *gin.Context) {
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

	bets, err := h.eng.GetBets(c.Request.Context(), predictionID, user, access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, bets)
}
