package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"rehabit/internal/cache"
	"rehabit/internal/config"
	"rehabit/internal/handlers"
	"rehabit/internal/insight"
	"rehabit/internal/metrics"
	"rehabit/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	log.Println("Starting Rehabit API server...")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Printf("Database ready at %s", cfg.DatabasePath)

	insightCache, err := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if err != nil {
		return err
	}
	defer insightCache.Close()
	log.Println("Connected to Redis")

	svc := insight.New(insight.Options{
		ArtifactsDir:    cfg.ArtifactsDir,
		ForecastPeriods: cfg.ForecastPeriods,
		Contamination:   cfg.Contamination,
		Seed:            cfg.TrainingSeed,
		Thresholds:      cfg.Thresholds,
	})
	publishModels(svc)

	handler := handlers.New(st, svc, insightCache)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("/prometheus", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.CORS(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Println("Server stopped gracefully")
	return nil
}

// publishModels loads whatever artifacts exist. Each model degrades
// independently: the server starts and serves raw data even with no
// model published at all.
func publishModels(svc *insight.Service) {
	report := svc.LoadArtifacts()
	for model, err := range map[string]error{
		"forecast": report.Forecast,
		"pattern":  report.Pattern,
		"anomaly":  report.Anomaly,
	} {
		if err != nil {
			log.Printf("Model %s unavailable: %v", model, err)
			metrics.ModelLoaded.WithLabelValues(model).Set(0)
		} else {
			log.Printf("Model %s loaded", model)
			metrics.ModelLoaded.WithLabelValues(model).Set(1)
		}
	}
}
