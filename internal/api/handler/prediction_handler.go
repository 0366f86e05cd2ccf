package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/gin-gonic/gin"
)

// PredictionHandler serves prediction creation, judge nomination and
// read-only query endpoints.
type PredictionHandler struct {
	eng *engine.Engine
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(eng *engine.Engine) *PredictionHandler {
	return &PredictionHandler{eng: eng}
}

// parsePredictionID extracts the :id path param as a domain.RowId.
func parsePredictionID(c *gin.Context) (domain.RowId, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid prediction id")
		return 0, false
	}
	return domain.RowId(id), true
}

// CreatePrediction godoc
// POST /api/predictions
// Body: {"question","judges","judge_count","judge_share_ppm","trading_end","decision_period_sec"}
// Grounded on original_source/src/api/requests.rs's NewPredictionRequest. This
// operation carries no AccessRequest — anyone may propose a prediction, the
// same way the reference implementation allows it.
func (h *PredictionHandler) CreatePrediction(c *gin.Context) {
	var body struct {
		Question          string          `json:"question"              binding:"required"`
		Judges            []domain.PubKey `json:"judges"                 binding:"required"`
		JudgeCount         uint32          `json:"judge_count"            binding:"required"`
		JudgeSharePpm      domain.Ppm      `json:"judge_share_ppm"`
		TradingEnd         time.Time       `json:"trading_end"            binding:"required"`
		DecisionPeriodSec  int64           `json:"decision_period_sec"    binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	id, err := h.eng.NewPrediction(c.Request.Context(), body.Question, body.Judges,
		body.JudgeCount, body.JudgeSharePpm, body.TradingEnd,
		time.Duration(body.DecisionPeriodSec)*time.Second)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"prediction_id": id})
}

// AcceptNomination godoc
// POST /api/predictions/:id/judges/accept
// Body: {"access":{"user","challenge","sig"}}
func (h *PredictionHandler) AcceptNomination(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	var body struct {
		Access domain.AccessRequest `json:"access" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.AcceptNomination(c.Request.Context(), predictionID, body.Access.User, body.Access); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"prediction_id": predictionID, "user": body.Access.User})
}

// RefuseNomination godoc
// POST /api/predictions/:id/judges/refuse
// Body: {"access":{"user","challenge","sig"}}
func (h *PredictionHandler) RefuseNomination(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	var body struct {
		Access domain.AccessRequest `json:"access" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.RefuseNomination(c.Request.Context(), predictionID, body.Access.User, body.Access); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"prediction_id": predictionID, "user": body.Access.User})
}

// ForceDecisionPeriod godoc
// POST /api/predictions/:id/force-decision [Admin]
// Body: {"access":{"user","challenge","sig"}}
func (h *PredictionHandler) ForceDecisionPeriod(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	var body struct {
		Access domain.AccessRequest `json:"access" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.eng.ForceDecisionPeriod(c.Request.Context(), predictionID, body.Access); err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"prediction_id": predictionID})
}

// ListPredictions godoc
// GET /api/predictions
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	predictions, err := h.eng.GetPredictions(c.Request.Context())
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, predictions)
}

// GetPrediction godoc
// GET /api/predictions/:id
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	overview, err := h.eng.GetPredictionOverview(c.Request.Context(), predictionID)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, overview)
}

// GetPredictionRatio godoc
// GET /api/predictions/:id/ratio
func (h *PredictionHandler) GetPredictionRatio(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	ratio, err := h.eng.GetPredictionRatio(c.Request.Context(), predictionID)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, ratio)
}

// GetPredictionJudges godoc
// GET /api/predictions/:id/judges
func (h *PredictionHandler) GetPredictionJudges(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	judges, err := h.eng.GetPredictionJudges(c.Request.Context(), predictionID)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, judges)
}

// ListJudges godoc
// GET /api/judges?prediction_id=1&user=<pubkey>
// Public judge roster, unauthenticated — matches the reference implementation.
func (h *PredictionHandler) ListJudges(c *gin.Context) {
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

	judges, err := h.eng.GetJudges(c.Request.Context(), predictionID, user)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, judges)
}

// GetJudge godoc
// GET /api/predictions/:id/judges/:user?access.user=..&access.challenge=..&access.sig=..
func (h *PredictionHandler) GetJudge(c *gin.Context) {
	predictionID, ok := parsePredictionID(c)
	if !ok {
		return
	}
	user := domain.PubKey(c.Param("user"))
	access := accessFromQuery(c)

	judge, err := h.eng.GetJudge(c.Request.Context(), predictionID, user, access)
	if err != nil {
		respondDomainErr(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, judge)
}

// accessFromQuery builds an AccessRequest out of access.user/access.challenge/
// access.sig query params, for GET endpoints that still require a caller
// identity. Mutating endpoints take the same shape inside the JSON body.
func accessFromQuery(c *gin.Context) domain.AccessRequest {
	return domain.AccessRequest{
		User:      domain.PubKey(c.Query("access.user")),
		Challenge: c.Query("access.challenge"),
		Sig:       c.Query("access.sig"),
	}
}
