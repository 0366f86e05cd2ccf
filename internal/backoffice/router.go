// Package backoffice is the operator-facing admin surface: a small,
// IP-allowlisted router over the same Engine the public API uses. Built
// with go-chi/chi/v5 rather than gin, matching the pack's chi-based
// services for an internal/admin-style surface.
package backoffice

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/evetabi/prediction/internal/backoffice/handler"
	"github.com/evetabi/prediction/internal/config"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	Engine *engine.Engine
	Hub    *ws.Hub // may be nil; the backoffice binary does not serve WS itself
	Cfg    *config.Config
}

// SetupBackofficeRouter creates the admin chi router, meant to run on its
// own port (Cfg.Server.BackofficePort).
func SetupBackofficeRouter(deps BackofficeDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	adminH := handler.NewAdminHandler(deps.Engine, deps.Hub)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", adminH.Dashboard)

		r.Get("/predictions", adminH.ListPredictions)
		r.Post("/predictions/{id}/force-decision", adminH.ForceDecisionPeriod)

		r.Get("/bets", adminH.ListBets)
		r.Post("/bets/pay", adminH.PayBet)

		r.Get("/cash-outs", adminH.ListCashOuts)
	})

	return r
}

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all (dev mode).
func ipWhitelistMiddleware(allowedIPs string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			host := r.RemoteAddr
			if idx := strings.LastIndex(host, ":"); idx != -1 {
				host = host[:idx]
			}
			if !allowed[host] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error":   "access denied: your IP is not whitelisted",
					"code":    "ERR_FORBIDDEN",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
