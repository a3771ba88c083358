package controllers

import (
	"encoding/json"
	"net/http"

	"squadup_server/services"

	"github.com/gorilla/mux"
)

type RequestController struct {
	Owner     *services.OwnerDecisionService
	Requester *services.RequesterActionService
	Requests  *services.RequestLogService
}

// SendRequestHandler creates a pending slot request.
func (c *RequestController) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		MatchID     string `json:"matchId"`
		Position    string `json:"position"`
		RequesterID string `json:"requesterId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := c.Requester.Send(r.Context(), request.MatchID, request.Position, request.RequesterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(record)
}

// AcceptRequestHandler executes the owner's accept decision.
func (c *RequestController) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := c.Owner.Accept(r.Context(), vars["matchId"], vars["requestId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(record)
}

// RejectRequestHandler executes the owner's reject decision.
func (c *RequestController) RejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := c.Owner.Reject(r.Context(), vars["matchId"], vars["requestId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(record)
}

// CancelPendingHandler withdraws a not-yet-decided request.
func (c *RequestController) CancelPendingHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.Requester.CancelPending(r.Context(), vars["matchId"], vars["requestId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Request cancelled"})
}

// CancelAcceptedHandler gives an accepted slot back.
func (c *RequestController) CancelAcceptedHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.Requester.CancelAccepted(r.Context(), vars["matchId"], vars["requestId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Acceptance cancelled"})
}

// DismissRejectedHandler clears a seen rejection notification.
func (c *RequestController) DismissRejectedHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.Requester.DismissRejected(r.Context(), vars["matchId"], vars["requestId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Rejection dismissed"})
}

// GetMyRequestsHandler lists the requester's records on a match.
func (c *RequestController) GetMyRequestsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	records, err := c.Requests.ListFor(r.Context(), vars["matchId"], vars["requesterId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(records)
}

// GetPendingInboxHandler lists the undecided requests awaiting an owner.
func (c *RequestController) GetPendingInboxHandler(w http.ResponseWriter, r *http.Request) {
	ownerID := mux.Vars(r)["ownerId"]
	records, err := c.Requests.ListPendingFor(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(records)
}
