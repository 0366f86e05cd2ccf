package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/ws"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the operator-only surface: every route here still
// runs through Engine's own requireAdmin/CheckAccess guard (same
// AccessRequest shape the public API binds), so the only thing this package
// adds over internal/api is the IP allowlist and a cross-prediction,
// cross-user view of the system.
type AdminHandler struct {
	eng *engine.Engine
	hub *ws.Hub
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(eng *engine.Engine, hub *ws.Hub) *AdminHandler {
	return &AdminHandler{eng: eng, hub: hub}
}

func respondDomainErr(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, "ERR_FORBIDDEN", err.Error())
	case domain.IsAccess(err):
		respondError(w, http.StatusUnauthorized, "ERR_UNAUTHORIZED", err.Error())
	case domain.IsPolicy(err):
		respondError(w, http.StatusConflict, "ERR_POLICY", err.Error())
	case domain.IsPayment(err):
		respondError(w, http.StatusConflict, "ERR_PAYMENT", err.Error())
	case domain.IsIntegrity(err):
		respondError(w, http.StatusConflict, "ERR_INTEGRITY", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "ERR_INTERNAL", "internal error")
	}
}

func accessFromQuery(r *http.Request) domain.AccessRequest {
	q := r.URL.Query()
	return domain.AccessRequest{
		User:      domain.PubKey(q.Get("access.user")),
		Challenge: q.Get("access.challenge"),
		Sig:       q.Get("access.sig"),
	}
}

// Dashboard godoc
// GET /admin/dashboard?access.user=..&access.challenge=..&access.sig=..
// Returns an operational snapshot: the prediction count, the number of
// predictions in each state, and the live WS connection count. Requires Admin/Root (enforced by GetBets's own
// all-users guard as a stand-in access check, since there is no dedicated
// dashboard engine method).
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access := accessFromQuery(r)

	if _, err := h.eng.GetBets(ctx, nil, nil, access); err != nil {
		respondDomainErr(w, err)
		return
	}

	predictions, err := h.eng.GetPredictions(ctx)
	if err != nil {
		respondDomainErr(w, err)
		return
	}

	counts := make(map[string]int)
	for _, p := range predictions {
		counts[p.State.String()]++
	}

	wsConnections := 0
	if h.hub != nil {
		wsConnections = h.hub.ConnectedCount()
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"prediction_count":     len(predictions),
		"predictions_by_state": counts,
		"ws_connections":       wsConnections,
	})
}

// ListPredictions godoc
// GET /admin/predictions?access.user=..&access.challenge=..&access.sig=..
func (h *AdminHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access := accessFromQuery(r)
	if _, err := h.eng.GetBets(ctx, nil, nil, access); err != nil {
		respondDomainErr(w, err)
		return
	}
	predictions, err := h.eng.GetPredictions(ctx)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, predictions)
}

// ForceDecisionPeriod godoc
// POST /admin/predictions/{id}/force-decision
// Body: {"access":{"user","challenge","sig"}}
func (h *AdminHandler) ForceDecisionPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "ERR_INVALID_ID", "invalid prediction id")
		return
	}
	var body struct {
		Access domain.AccessRequest `json:"access"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if err := h.eng.ForceDecisionPeriod(r.Context(), domain.RowId(id), body.Access); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"prediction_id": id})
}

// PayBet godoc
// POST /admin/bets/pay
// Body: {"access":{"user","challenge","sig"},"invoice","amount"}
func (h *AdminHandler) PayBet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Access  domain.AccessRequest `json:"access"`
		Invoice string               `json:"invoice"`
		Amount  domain.Sats          `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if body.Invoice == "" {
		respondError(w, http.StatusBadRequest, "ERR_VALIDATION", "invoice is required")
		return
	}
	if err := h.eng.PayBet(r.Context(), body.Invoice, body.Amount, body.Access); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"invoice": body.Invoice})
}

// ListBets godoc
// GET /admin/bets?prediction_id=1&user=<pubkey>&access.user=..&access.challenge=..&access.sig=..
// Omitting user lists across every bettor — requires Admin/Root.
func (h *AdminHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var predictionID *domain.RowId
	if raw := q.Get("prediction_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "ERR_INVALID_ID", "invalid prediction_id")
			return
		}
		id := domain.RowId(n)
		predictionID = &id
	}
	var user *domain.PubKey
	if raw := q.Get("user"); raw != "" {
		u := domain.PubKey(raw)
		user = &u
	}

	bets, err := h.eng.GetBets(r.Context(), predictionID, user, accessFromQuery(r))
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, bets)
}

// ListCashOuts godoc
// GET /admin/cash-outs?prediction_id=1&user=<pubkey>&access.user=..&access.challenge=..&access.sig=..
func (h *AdminHandler) ListCashOuts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var predictionID *domain.RowId
	if raw := q.Get("prediction_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "ERR_INVALID_ID", "invalid prediction_id")
			return
		}
		id := domain.RowId(n)
		predictionID = &id
	}
	var user *domain.PubKey
	if raw := q.Get("user"); raw != "" {
		u := domain.PubKey(raw)
		user = &u
	}

	cashOuts, err := h.eng.GetCashOuts(r.Context(), predictionID, user, accessFromQuery(r))
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, cashOuts)
}
