package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/clubtreso/backend/src/config"
	"github.com/username/clubtreso/backend/src/database"
	"github.com/username/clubtreso/backend/src/handlers"
	"github.com/username/clubtreso/backend/src/logger"
	"github.com/username/clubtreso/backend/src/processors"
	"github.com/username/clubtreso/backend/src/security"
	"github.com/username/clubtreso/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Clubtreso backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Loading scoring weights...")
	weights := processors.DefaultWeights()
	if config.Cfg.ScoringWeightsPath != "" {
		loaded, err := processors.LoadWeights(config.Cfg.ScoringWeightsPath)
		if err != nil {
			logger.L.Error("Failed to load scoring weights, using defaults", "path", config.Cfg.ScoringWeightsPath, "error", err)
		} else {
			weights = loaded
		}
	}

	logger.L.Info("Initializing result cache...")
	resultCache := cache.New(config.Cfg.CandidateCacheExpiry, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)

	dedupProcessor := processors.NewDedupProcessor()
	statementProcessor := processors.NewStatementProcessor(dedupProcessor)
	ventilationProcessor := processors.NewVentilationProcessor()
	linkRegistry := processors.NewLinkRegistry()
	scoringProcessor := processors.NewScoringProcessor(weights)
	categoryProcessor := processors.NewCategoryProcessor(config.Cfg.KeywordMinLength, config.Cfg.AmountTolerancePct)

	reconciliationService := services.NewReconciliationService(
		statementProcessor, dedupProcessor, ventilationProcessor,
		linkRegistry, scoringProcessor, categoryProcessor,
		resultCache,
	)

	authHandler := handlers.NewAuthHandler(authService)
	uploadHandler := handlers.NewUploadHandler(reconciliationService)
	txHandler := handlers.NewTransactionHandler(reconciliationService)
	matchingHandler := handlers.NewMatchingHandler(reconciliationService)
	auditHandler := handlers.NewAuditHandler(reconciliationService)

	auditCron, err := services.StartAuditSchedule(config.Cfg.AuditCronSpec, reconciliationService)
	if err != nil {
		logger.L.Error("Failed to schedule periodic link audit", "spec", config.Cfg.AuditCronSpec, "error", err)
	}
	if auditCron != nil {
		defer auditCron.Stop()
	}

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	protect := authHandler.AuthMiddleware

	apiRouter.HandleFunc("POST /api/import", protect(uploadHandler.HandleImportStatement))
	apiRouter.HandleFunc("GET /api/transactions", protect(txHandler.HandleGetTransactions))
	apiRouter.HandleFunc("GET /api/duplicates", protect(txHandler.HandleGetDuplicates))
	apiRouter.HandleFunc("GET /api/totals", protect(txHandler.HandleGetTotals))
	apiRouter.HandleFunc("POST /api/transactions/{id}/split", protect(txHandler.HandleSplitTransaction))
	apiRouter.HandleFunc("POST /api/transactions/{id}/links", protect(txHandler.HandleLinkTransaction))
	apiRouter.HandleFunc("DELETE /api/transactions/{id}/links", protect(txHandler.HandleUnlinkTransaction))
	apiRouter.HandleFunc("GET /api/transactions/{id}/category-suggestions", protect(txHandler.HandleGetCategorySuggestions))
	apiRouter.HandleFunc("POST /api/candidates", protect(matchingHandler.HandleCandidates))
	apiRouter.HandleFunc("POST /api/candidates/grouped", protect(matchingHandler.HandleGroupedCandidates))
	apiRouter.HandleFunc("POST /api/links/audit", protect(auditHandler.HandleAuditLinks))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "CLUBTRESO Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
