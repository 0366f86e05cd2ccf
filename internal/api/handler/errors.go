package handler

import (
	"errors"
	"net/http"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondDomainErr translates a domain sentinel error into the standard
// {success:false,error,code} envelope. Every handler in this package funnels
// engine errors through here instead of re-deriving its own switch, since the
// error set (policy/access/lookup/payment/integrity) is shared by every
// operation rather than split per sub-domain the way the teacher's
// market/bet services were.
func respondDomainErr(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", err.Error())
	case domain.IsAccess(err):
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", err.Error())
	case domain.IsPolicy(err):
		respondError(c, http.StatusConflict, "ERR_POLICY", err.Error())
	case domain.IsPayment(err):
		respondError(c, http.StatusConflict, "ERR_PAYMENT", err.Error())
	case domain.IsIntegrity(err):
		respondError(c, http.StatusConflict, "ERR_INTEGRITY", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "internal error")
	}
}
