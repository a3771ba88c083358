package controllers

import (
	"encoding/json"
	"net/http"

	"squadup_server/models"
	"squadup_server/services"

	"github.com/gorilla/mux"
)

type MatchController struct {
	Ledger *services.SlotLedgerService
}

// CreateMatchHandler creates a match advertising missing positions.
func (c *MatchController) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		OwnerID       string         `json:"ownerId"`
		Sport         string         `json:"sport"`
		MissingGroups map[string]int `json:"missingGroups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.OwnerID == "" {
		http.Error(w, "ownerId is required", http.StatusBadRequest)
		return
	}

	match, err := c.Ledger.CreateMatch(r.Context(), request.OwnerID, request.Sport, request.MissingGroups)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(match)
}

// GetLedgerHandler returns the match's current missing-position ledger.
func (c *MatchController) GetLedgerHandler(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	match, err := c.Ledger.Get(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	counts, err := models.ParseMissingGroups(match.MissingGroups)
	if err != nil {
		http.Error(w, "Corrupt ledger encoding", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matchId":       match.MatchID,
		"ownerId":       match.OwnerID,
		"missingGroups": match.MissingGroups,
		"counts":        counts,
		"version":       match.Version,
	})
}
