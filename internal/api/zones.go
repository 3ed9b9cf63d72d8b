package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/enobrev/htd-lync-mqtt/internal/mirror"
)

// zoneView is the JSON form of one zone.
type zoneView struct {
	Number       int            `json:"number"`
	Name         string         `json:"name"`
	Power        bool           `json:"power"`
	Mute         bool           `json:"mute"`
	DoNotDisturb bool           `json:"dnd"`
	Source       int            `json:"source"`
	SourceName   string         `json:"source_name"`
	Volume       int            `json:"volume"`
	Treble       int            `json:"treble"`
	Bass         int            `json:"bass"`
	Balance      int            `json:"balance"`
	Sources      map[int]string `json:"sources"`
}

func newZoneView(z mirror.ZoneState) zoneView {
	sources := z.SourceNames
	if sources == nil {
		sources = map[int]string{}
	}
	return zoneView{
		Number:       z.Number,
		Name:         z.Name,
		Power:        z.Power,
		Mute:         z.Mute,
		DoNotDisturb: z.DoNotDisturb,
		Source:       z.ActiveSource,
		SourceName:   z.SourceDisplayName(),
		Volume:       z.Volume,
		Treble:       z.Treble,
		Bass:         z.Bass,
		Balance:      z.Balance,
		Sources:      sources,
	}
}

// handleListZones returns every zone.
//
// GET /zones
// Response: {"zones": [...], "count": N}
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	zones := s.state.Zones()
	views := make([]zoneView, 0, len(zones))
	for _, z := range zones {
		views = append(views, newZoneView(z))
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": views, "count": len(views)})
}

// handleGetZone returns one zone.
//
// GET /zones/{zone}
func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "zone"))
	if err != nil {
		writeBadRequest(w, "zone must be a number")
		return
	}
	z, err := s.state.Zone(n)
	if err != nil {
		writeNotFound(w, "zone not found")
		return
	}
	writeJSON(w, http.StatusOK, newZoneView(z))
}
