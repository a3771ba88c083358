package routes

import (
	"squadup_server/controllers"
	"squadup_server/services"

	"github.com/gorilla/mux"
)

// RegisterRequestRoutes sets up the slot-request lifecycle under /api/requests
func RegisterRequestRoutes(
	router *mux.Router,
	owner *services.OwnerDecisionService,
	requester *services.RequesterActionService,
	requests *services.RequestLogService,
) {
	controller := &controllers.RequestController{Owner: owner, Requester: requester, Requests: requests}

	requestRouter := router.PathPrefix("/api/requests").Subrouter()
	requestRouter.HandleFunc("", controller.SendRequestHandler).Methods("POST")
	requestRouter.HandleFunc("/{matchId}/{requestId}/accept", controller.AcceptRequestHandler).Methods("POST")
	requestRouter.HandleFunc("/{matchId}/{requestId}/reject", controller.RejectRequestHandler).Methods("POST")
	requestRouter.HandleFunc("/{matchId}/{requestId}/cancel-pending", controller.CancelPendingHandler).Methods("POST")
	requestRouter.HandleFunc("/{matchId}/{requestId}/cancel-accepted", controller.CancelAcceptedHandler).Methods("POST")
	requestRouter.HandleFunc("/{matchId}/{requestId}/dismiss", controller.DismissRejectedHandler).Methods("POST")
	requestRouter.HandleFunc("/match/{matchId}/requester/{requesterId}", controller.GetMyRequestsHandler).Methods("GET")
	requestRouter.HandleFunc("/inbox/{ownerId}", controller.GetPendingInboxHandler).Methods("GET")
}
