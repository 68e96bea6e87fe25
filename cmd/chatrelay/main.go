package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"chatrelay/internal/api"
	"chatrelay/internal/catalog"
	"chatrelay/internal/config"
	"chatrelay/internal/hub"
	"chatrelay/internal/presence"
	"chatrelay/internal/room"
	"chatrelay/internal/router"
	"chatrelay/internal/websocket"
)

// Application wires the relay's components in dependency order:
// catalog, presence, rooms, registry, router, hub, transport, API.
type Application struct {
	config     *config.Config
	catalog    *catalog.Store
	presence   *presence.Registry
	rooms      *room.Table
	registry   *websocket.Registry
	router     *router.Router
	hub        *hub.Hub
	apiServer  *api.Server
	httpServer *http.Server
}

// NewApplication builds the component graph from a validated config.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := catalog.NewStore(cfg.Catalog, cfg.Chat.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize channel catalog: %w", err)
	}

	pres := presence.NewRegistry()
	rooms := room.NewTable()
	registry := websocket.NewRegistry()

	eventRouter := router.NewRouter(registry, pres, rooms, store, cfg.Chat)
	eventHub := hub.NewHub(registry, eventRouter)

	apiServer := api.NewServer(store, pres, registry, rooms)
	wsHandler := websocket.NewHandler(eventHub, cfg.WebSocket)

	m := mux.NewRouter()
	m.HandleFunc("/ws", wsHandler.HandleWebSocket)
	m.PathPrefix("/api/").Handler(apiServer)
	m.Handle("/health", apiServer)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      m,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		catalog:    store,
		presence:   pres,
		rooms:      rooms,
		registry:   registry,
		router:     eventRouter,
		hub:        eventHub,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// Start launches the hub and the HTTP listener.
func (a *Application) Start(ctx context.Context) error {
	if err := a.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	log.Printf("Server listening on %s", a.httpServer.Addr)

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	return nil
}

// Stop shuts components down in reverse order. Session state is
// volatile; only the channel catalog needs a clean close.
func (a *Application) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := a.hub.Stop(); err != nil {
		log.Printf("Hub stop error: %v", err)
	}
	for _, conn := range a.registry.All() {
		_ = conn.Close()
	}
	if err := a.catalog.Close(); err != nil {
		log.Printf("Catalog close error: %v", err)
	}
}

func main() {
	configPath := flag.String("config", os.Getenv("CHATRELAY_CONFIG"), "path to JSON config file")
	flag.Parse()

	cfg := config.LoadConfigWithPrecedence(*configPath)

	app, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	app.Stop()
	log.Println("Server exited")
}
