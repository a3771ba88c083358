package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"squadup_server/bus"
	"squadup_server/feed"
	"squadup_server/models"
	"squadup_server/routes"
	"squadup_server/services"
	"squadup_server/socket"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize core services
	ledgerService := &services.SlotLedgerService{Dynamo: dynamoService}
	requestLog := &services.RequestLogService{Dynamo: dynamoService}
	localBus := bus.New()
	suppression := services.NewSuppressionList(envDuration("SUPPRESSION_WINDOW_SECONDS", services.DefaultSuppressionWindow))

	ownerService := &services.OwnerDecisionService{Ledger: ledgerService, Requests: requestLog, Bus: localBus}
	requesterService := &services.RequesterActionService{Ledger: ledgerService, Requests: requestLog, Suppression: suppression}

	// Start the stream feed that backs the push channel
	streamsFeed := feed.NewStreamsFeed(feed.InitializeStreamsClient())
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	go streamsFeed.Run(feedCtx, []string{
		latestStreamArn(dynamoClient, models.MatchesTable),
		latestStreamArn(dynamoClient, models.SlotRequestsTable),
	})

	syncManager := &services.SyncChannelManager{
		Ledger:       ledgerService,
		Requests:     requestLog,
		Bus:          localBus,
		Feed:         streamsFeed,
		Suppression:  suppression,
		PollInterval: envDuration("POLL_INTERVAL_SECONDS", services.DefaultPollInterval),
	}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to SquadUp")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterMatchRoutes(r, ledgerService)
	routes.RegisterRequestRoutes(r, ownerService, requesterService, requestLog)
	routes.RegisterViewRoutes(r, ledgerService, requestLog, suppression)

	// Mount the socket.io push server
	socketServer := socket.NewSocketServer(syncManager)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()
	r.PathPrefix("/socket.io/").Handler(socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

// latestStreamArn looks up the table's stream. An empty result disables push
// for that table; the poll fallback still keeps viewers current.
func latestStreamArn(client *dynamodb.Client, tableName string) string {
	out, err := client.DescribeTable(context.TODO(), &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		log.Printf("Failed to describe table %s, push disabled for it: %v", tableName, err)
		return ""
	}
	arn := aws.ToString(out.Table.LatestStreamArn)
	if arn == "" {
		log.Printf("Table %s has no stream enabled, push disabled for it", tableName)
	}
	return arn
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Printf("Ignoring invalid %s=%q", name, raw)
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
