package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/raykavin/pricelens/core"
)

const (
	cacheHit  = "HIT"
	cacheMiss = "MISS"
)

// errorResponse is the body of every failed API request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handlePrice proxies the upstream kline endpoint with caching. A cache
// hit replays the exact bytes of the cached response, so two identical
// requests within the TTL return byte-identical bodies.
func (a *App) handlePrice(w http.ResponseWriter, r *http.Request) {
	state := ParseQueryState(r.URL.Query(), a.defaults)
	key := fmt.Sprintf("%s:%s:%d", state.Symbol, state.Interval, state.Limit)

	if body, ok := a.cache.Get(key); ok {
		writeJSONBytes(w, cacheHit, body)
		return
	}

	candles, err := a.feeder.KlinesByLimit(r.Context(), state.Symbol, state.Interval, state.Limit)
	if err != nil {
		a.log.WithError(err).Error("upstream kline fetch failed")
		writeError(w, http.StatusInternalServerError, "upstream_error", err.Error())
		return
	}

	points := make([]core.PricePoint, 0, len(candles))
	for _, c := range candles {
		points = append(points, c.PricePoint())
	}

	body, err := json.Marshal(points)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding_error", err.Error())
		return
	}

	if err := a.cache.Set(key, body); err != nil {
		a.log.WithError(err).Error("failed to cache response")
	}

	writeJSONBytes(w, cacheMiss, body)
}

// handleCacheStats reports the cache keys and hit/miss counters.
func (a *App) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	keys, err := a.cache.Keys()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cache_error", err.Error())
		return
	}

	stats, err := a.cache.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cache_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"stats": stats,
	})
}

// handleCacheClear drops all cached responses. POST only.
func (a *App) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	if err := a.cache.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "cache_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "cache cleared",
	})
}

// handleHealth handles health check requests
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.Lock()
	lastUpdate := a.lastUpdate
	a.Unlock()

	// unhealthy if no updates in more of 10 minutes
	if time.Since(lastUpdate) > 10*time.Minute {
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(lastUpdate.String())); err != nil {
			a.log.Error("Failed to write health status: ", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleIndex handles the main page request
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	state := ParseQueryState(r.URL.Query(), a.defaults)

	w.Header().Set("Content-Type", "text/html")
	err := a.indexHTML.Execute(w, map[string]any{
		"state": state,
	})
	if err != nil {
		a.log.Error("Template execution failed: ", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleScript serves the transpiled chart client referenced by the
// page's script tag.
func (a *App) handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	fmt.Fprint(w, a.scriptContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONBytes(w http.ResponseWriter, cacheStatus string, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: code, Message: message})
}
