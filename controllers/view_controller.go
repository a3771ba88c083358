package controllers

import (
	"encoding/json"
	"net/http"

	"squadup_server/services"

	"github.com/gorilla/mux"
)

// ViewController serves the derived per-viewer position states over plain
// HTTP. This is the same derivation the socket sessions push; clients
// without a live socket can poll it.
type ViewController struct {
	Ledger      *services.SlotLedgerService
	Requests    *services.RequestLogService
	Suppression *services.SuppressionList
}

// GetViewerStateHandler re-derives the viewer's display state from a fresh
// ledger and log snapshot.
func (c *ViewController) GetViewerStateHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchID, viewerID := vars["matchId"], vars["viewerId"]

	match, err := c.Ledger.Get(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	records, err := c.Requests.ListFor(r.Context(), matchID, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	snapshot := services.SnapshotOf(match)
	suppressed := c.Suppression.SuppressedPositions(matchID, viewerID)
	states := services.DerivePositionStates(snapshot, records, viewerID, suppressed)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"matchId": matchID,
		"version": snapshot.Version,
		"states":  states,
	})
}
