package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesQuestAPI/handlers"
	"salesQuestAPI/internal/config"
	"salesQuestAPI/internal/notification"
	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/quota"
	"salesQuestAPI/internal/workers"
	"salesQuestAPI/middleware"
	"salesQuestAPI/services"
)

var (
	cfg                config.Config
	dbPool             *pgxpool.Pool
	engineStore        store.Store
	activityService    *services.ActivityService
	aggregationService *services.AggregationService
	engagementService  *services.EngagementService
	quotaService       *services.QuotaService
	groupService       *services.GroupService
	dispatcher         *services.NotificationDispatcher
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg = config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	engineStore = store.NewPostgresStore(dbPool)

	aggregationService = services.NewAggregationService(engineStore, cfg.TeamStatsTTL, cfg.LeaderboardTTL)
	quotaService = services.NewQuotaService(
		engineStore,
		map[quota.Category]int{quota.CategoryActivity: cfg.QuotaDailyCeiling},
		cfg.QuotaDailyCeiling,
		cfg.QuotaWarningThreshold,
		cfg.QuotaRetention,
	)
	engagementService = services.NewEngagementService(engineStore)
	groupService = services.NewGroupService(engineStore)
	activityService = services.NewActivityService(engineStore)

	dispatcher = services.NewNotificationDispatcher(engineStore, quotaService, aggregationService, cfg.SendTimeout)
	activityService.SetNotifier(dispatcher)
	engagementService.SetNotifier(dispatcher)

	fcmService, err := notification.NewFCMService(cfg.FCMKeyPath)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	// Two independent periodic sweeps: cache expiry and quota retention.
	cacheSweep := workers.NewSweep("cache", cfg.CacheSweepInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := engineStore.CacheDeleteExpired(ctx, time.Now())
		if err != nil {
			log.Printf("Cache sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("Cache sweep removed %d expired entries", removed)
		}
	})
	quotaSweep := workers.NewSweep("quota", cfg.QuotaSweepInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		quotaService.CleanupOldRecords(ctx)
	})
	cacheSweep.Start()
	quotaSweep.Start()

	activityHandler := handlers.NewActivityHandler(activityService)
	statsHandler := handlers.NewStatsHandler(aggregationService)
	engagementHandler := handlers.NewEngagementHandler(engagementService)
	groupHandler := handlers.NewGroupHandler(groupService)
	quotaHandler := handlers.NewQuotaHandler(quotaService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "salesQuest-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/team/stats", statsHandler.GetTeamStats).Methods("GET")
	api.HandleFunc("/leaderboard", statsHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/groups", groupHandler.ListGroups).Methods("GET")
	api.HandleFunc("/quota/{category}", quotaHandler.CheckQuota).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.AuthToken))

	protected.HandleFunc("/activities", activityHandler.CreateActivity).Methods("POST")
	protected.HandleFunc("/activities", activityHandler.GetActivities).Methods("GET")
	protected.HandleFunc("/activities/{id}", activityHandler.DeleteActivity).Methods("DELETE")

	protected.HandleFunc("/users/{id}/streak", engagementHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/users/{id}/streak", engagementHandler.UpdateStreak).Methods("PUT")
	protected.HandleFunc("/users/{id}/achievements", engagementHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/users/{id}/achievements/{achievementId}", engagementHandler.UnlockAchievement).Methods("POST")

	protected.HandleFunc("/groups/register", groupHandler.RegisterGroup).Methods("POST")
	protected.HandleFunc("/groups/{key}/notifications", groupHandler.ToggleNotifications).Methods("PUT")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	cacheSweep.Stop()
	quotaSweep.Stop()
	dispatcher.Stop()

	log.Println("Server shutdown complete")
}
