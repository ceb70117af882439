package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/quiet-dominion/config"
	"github.com/user/quiet-dominion/internal/archive"
	"github.com/user/quiet-dominion/internal/catalog"
	"github.com/user/quiet-dominion/internal/game"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Set up logger
	logger := setupLogger()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Load the content catalog
	cat, err := catalog.Load(cfg.Assets.Dir)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded",
		zap.Int("structures", len(cat.Structures)),
		zap.Int("events", len(cat.Events)),
		zap.Int("territories", len(cat.Territories)))

	// Set up persistence
	store, err := game.NewSnapshotStore(cfg.Storage.SavePath)
	if err != nil {
		logger.Fatal("Failed to open snapshot store", zap.Error(err))
	}

	runArchive, err := archive.Open(cfg.Storage.ArchivePath)
	if err != nil {
		logger.Fatal("Failed to open run archive", zap.Error(err))
	}
	defer runArchive.Close()

	// Initialize game manager
	gameManager := game.NewGameManager(cat, store)
	gameManager.SetLogger(logger)
	gameManager.SetArchive(runArchive)

	if gameManager.LoadGame() {
		logger.Info("Resumed saved game")
	} else {
		logger.Info("Starting new game")
	}

	// Start the simulation scheduler
	scheduler := game.NewScheduler(gameManager)
	scheduler.Start()
	defer scheduler.Stop()

	// Set up HTTP server
	server := setupHTTPServer(cfg, gameManager, runArchive, logger)

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(logger)

	// Persist on the way out
	if err := gameManager.SaveGame(); err != nil {
		logger.Error("Failed to save on shutdown", zap.Error(err))
	}
}

func setupLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func setupHTTPServer(cfg config.Config, gameManager *game.GameManager, runArchive *archive.Store, logger *zap.Logger) *http.Server {
	// Create router
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	router.Get("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, gameManager.State())
	})

	router.Post("/game/start", func(w http.ResponseWriter, r *http.Request) {
		gameManager.StartGame()
		writeJSON(w, gameManager.State())
	})

	router.Post("/game/intro-complete", func(w http.ResponseWriter, r *http.Request) {
		gameManager.CompleteIntro()
		writeJSON(w, gameManager.State())
	})

	router.Get("/structures", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, gameManager.Catalog().Structures)
	})

	router.Get("/structures/{id}/affordable", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		writeJSON(w, map[string]bool{"affordable": gameManager.CanAffordStructure(id)})
	})

	router.Post("/structures/{id}/build", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := gameManager.BuildStructure(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Post("/events/resolve", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChoiceIndex int `json:"choice_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		outcome, err := gameManager.ResolveEvent(req.ChoiceIndex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, map[string]string{"outcome": outcome})
	})

	router.Get("/territories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, gameManager.Catalog().Territories)
	})

	router.Get("/territories/{id}/explorable", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		writeJSON(w, map[string]bool{"explorable": gameManager.CanExploreTerritory(id)})
	})

	router.Post("/expeditions/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := gameManager.StartExpedition(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Get("/expeditions/progress", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]float64{"progress": gameManager.ExpeditionProgress()})
	})

	router.Post("/advisors/{id}/relation", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Delta int `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if err := gameManager.UpdateAdvisorRelation(chi.URLParam(r, "id"), req.Delta); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Get("/endings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"eligible":     gameManager.EligibleEndings(),
			"requirements": gameManager.PrestigeRequirements(),
		})
	})

	router.Get("/prestige/preview", func(w http.ResponseWriter, r *http.Request) {
		endingID := r.URL.Query().Get("ending_id")
		writeJSON(w, map[string]int{"legacy_points": gameManager.LegacyPointsPreview(endingID)})
	})

	router.Post("/prestige", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EndingID string `json:"ending_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		earned, err := gameManager.Prestige(req.EndingID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, map[string]int{"legacy_earned": earned})
	})

	router.Post("/prestige/upgrades/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := gameManager.PurchaseLegacyUpgrade(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Post("/path/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := gameManager.SetPath(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Post("/advisors/{id}/unlock", func(w http.ResponseWriter, r *http.Request) {
		if err := gameManager.UnlockAdvisor(chi.URLParam(r, "id")); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Post("/lore/{id}/discover", func(w http.ResponseWriter, r *http.Request) {
		if err := gameManager.DiscoverLore(chi.URLParam(r, "id")); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, gameManager.State())
	})

	router.Post("/lore/{id}/acknowledge", func(w http.ResponseWriter, r *http.Request) {
		gameManager.AcknowledgeLore(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/notifications", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type       string `json:"type"`
			Message    string `json:"message"`
			DurationMs int    `json:"duration_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		id := gameManager.AddNotification(req.Type, req.Message, req.DurationMs)
		writeJSON(w, map[string]string{"id": id})
	})

	router.Delete("/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		gameManager.DismissNotification(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/save", func(w http.ResponseWriter, r *http.Request) {
		if err := gameManager.SaveGame(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/load", func(w http.ResponseWriter, r *http.Request) {
		loaded := gameManager.LoadGame()
		writeJSON(w, map[string]bool{"loaded": loaded})
	})

	router.Get("/archive/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := runArchive.ListRuns()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, runs)
	})

	router.Get("/archive/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid run ID", http.StatusBadRequest)
			return
		}
		snapshot, err := runArchive.RunSnapshot(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, snapshot)
	})

	// State stream: pushes a snapshot once per tick interval
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("Failed to upgrade websocket", zap.Error(err))
			return
		}
		go streamState(conn, gameManager, logger)
	})

	return &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
}

// streamState sends state snapshots over the websocket until the client
// disconnects.
func streamState(conn *websocket.Conn, gameManager *game.GameManager, logger *zap.Logger) {
	defer conn.Close()

	interval := time.Duration(gameManager.Catalog().Balance.TickIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(gameManager.State()); err != nil {
			logger.Debug("Websocket client gone", zap.Error(err))
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func waitForShutdown(logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	logger.Info("Shutting down")
}
