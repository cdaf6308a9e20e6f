package httpapi

import (
	"net/http"

	"eduai-backend-go/internal/services"
)

func (s *Server) AIUsage(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	byDay, err := services.AIUsageByDay(r.Context(), s.DB, days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	byModel, err := services.AIUsageByModel(r.Context(), s.DB, days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"byDay":   byDay,
		"byModel": byModel,
	})
}

func (s *Server) CreditAnalytics(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	byType, err := services.CreditUsageByType(r.Context(), s.DB, days)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"byType": byType})
}

// QueryStats exposes the query monitor for the admin dashboard.
// reset=true clears the counters after reading them.
func (s *Server) QueryStats(w http.ResponseWriter, r *http.Request) {
	stats := s.Monitor.Stats()
	slow := s.Monitor.SlowQueries()
	pool := s.Pool.Stats()
	if r.URL.Query().Get("reset") == "true" {
		s.Monitor.Reset()
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"queries":     stats,
		"slowQueries": slow,
		"cacheSize":   s.Cache.Len(),
		"pool": map[string]interface{}{
			"open":    pool.OpenConnections,
			"inUse":   pool.InUse,
			"idle":    pool.Idle,
			"waited":  pool.WaitCount,
			"maxOpen": pool.MaxOpenConnections,
		},
	})
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 120)
	if limit < 1 || limit > 1000 {
		limit = 120
	}
	samples, err := services.LatestMetrics(s.DB, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, samples)
}
