package api

import (
	"net/http"

	"github.com/enobrev/htd-lync-mqtt/internal/sequencer"
)

// handleHealth returns the bridge health report, or a bare liveness
// document when no health source is wired. The status code is 503 while
// the broker check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if s.broker != nil {
		if err := s.broker.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("broker health check failed", "error", err)
			code = http.StatusServiceUnavailable
		}
	}

	if s.health == nil {
		status := "ok"
		if code != http.StatusOK {
			status = "unavailable"
		}
		writeJSON(w, code, map[string]any{
			"status":  status,
			"version": s.version,
		})
		return
	}
	writeJSON(w, code, s.health.Health())
}

// handleSystem returns the controller-wide flags and identity.
//
// GET /system
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	sys := s.state.System()
	resp := map[string]any{
		"all_on":     sys.AllOn,
		"all_off":    sys.AllOff,
		"party_mode": sys.PartyMode,
	}
	if id, ok := s.state.Identity(); ok {
		resp["id"] = id.DeviceID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMp3 returns the mp3 player metadata.
//
// GET /mp3
func (s *Server) handleMp3(w http.ResponseWriter, _ *http.Request) {
	mp3 := s.state.Mp3()
	writeJSON(w, http.StatusOK, map[string]any{
		"repeat": mp3.Repeat,
		"artist": mp3.Artist,
		"file":   mp3.File,
	})
}

// handleSources returns the global source catalog.
//
// GET /sources
// Response: {"sources": {"1": "Radio", ...}, "count": N}
func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	catalog := s.state.SourceCatalog()
	if catalog == nil {
		catalog = map[int]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": catalog, "count": len(catalog)})
}

// handleRefresh asks the controller to resend its full state.
//
// POST /refresh
// Response: 202 Accepted {"intent_id": "..."}
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.intents == nil {
		writeUnavailable(w, "refresh not available")
		return
	}
	id, err := s.intents.Submit(sequencer.Intent{Op: sequencer.OpRefresh})
	if err != nil {
		s.logger.Warn("refresh not queued", "error", err)
		writeUnavailable(w, "refresh not queued")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"intent_id": id})
}
