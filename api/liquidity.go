package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// liquiditySettings is the runtime-toggleable liquidity-provider
// configuration described in spec §5 ("Runtime liquidity-provider toggle:
// single process-wide value, atomically replaced"). The aggregation logic
// itself lives in the external liquidity-provider subsystem (spec §1,
// out of core scope); this is the contract surface the core exposes.
type liquiditySettings struct {
	EnabledProviders []string `json:"enabledProviders"`
}

type liquidityToggle struct {
	value atomic.Value // holds liquiditySettings
}

func newLiquidityToggle() *liquidityToggle {
	t := &liquidityToggle{}
	t.value.Store(liquiditySettings{EnabledProviders: []string{}})
	return t
}

func (t *liquidityToggle) get() liquiditySettings {
	return t.value.Load().(liquiditySettings)
}

func (t *liquidityToggle) set(s liquiditySettings) {
	t.value.Store(s)
}

// restrictedMarkets lists outcome/market ids for which liquidity quotes
// are not published (403). The set is empty, so no market is currently
// refused.
var restrictedMarkets = map[string]bool{}

func (s *Server) handleLiquidityQuotes(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("marketId")
	if restrictedMarkets[marketID] {
		writeError(w, http.StatusForbidden, "market is restricted")
		return
	}
	settings := s.liquidity.get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"marketId":  marketID,
		"providers": settings.EnabledProviders,
		"quotes":    []interface{}{},
	})
}

func (s *Server) handleLiquiditySettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.liquidity.get())
	case http.MethodPatch:
		var req liquiditySettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		s.liquidity.set(req)
		writeJSON(w, http.StatusOK, s.liquidity.get())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
