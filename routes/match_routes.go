package routes

import (
	"squadup_server/controllers"
	"squadup_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up match ledger routes under /api/matches
func RegisterMatchRoutes(router *mux.Router, ledger *services.SlotLedgerService) {
	controller := &controllers.MatchController{Ledger: ledger}

	matchRouter := router.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("", controller.CreateMatchHandler).Methods("POST")             // Create a match with missing groups
	matchRouter.HandleFunc("/{matchId}/ledger", controller.GetLedgerHandler).Methods("GET") // Current missing-position counts
}
