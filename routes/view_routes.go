package routes

import (
	"squadup_server/controllers"
	"squadup_server/services"

	"github.com/gorilla/mux"
)

// RegisterViewRoutes sets up the derived viewer-state route under /api/view
func RegisterViewRoutes(
	router *mux.Router,
	ledger *services.SlotLedgerService,
	requests *services.RequestLogService,
	suppression *services.SuppressionList,
) {
	controller := &controllers.ViewController{Ledger: ledger, Requests: requests, Suppression: suppression}

	viewRouter := router.PathPrefix("/api/view").Subrouter()
	viewRouter.HandleFunc("/{matchId}/{viewerId}", controller.GetViewerStateHandler).Methods("GET")
}
