package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"rehabit/internal/config"
	"rehabit/internal/insight"
	"rehabit/internal/store"
)

var trainUserID int64

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit all models from a user's activity history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd.Context(), trainUserID)
	},
}

func init() {
	trainCmd.Flags().Int64Var(&trainUserID, "user-id", 1, "user whose history to train on")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(ctx context.Context, userID int64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.History(ctx, userID)
	if err != nil {
		return err
	}
	log.Printf("Training on %d activities for user %d", len(records), userID)

	svc := insight.New(insight.Options{
		ArtifactsDir:    cfg.ArtifactsDir,
		ForecastPeriods: cfg.ForecastPeriods,
		Contamination:   cfg.Contamination,
		Seed:            cfg.TrainingSeed,
		Thresholds:      cfg.Thresholds,
	})

	report := svc.Train(records)
	for model, trainErr := range map[string]error{
		"forecast": report.Forecast,
		"pattern":  report.Pattern,
		"anomaly":  report.Anomaly,
	} {
		if trainErr != nil {
			log.Printf("Model %s failed: %v", model, trainErr)
		} else {
			log.Printf("Model %s trained and saved", model)
		}
	}

	if report.AllFailed() {
		return fmt.Errorf("all models failed to train")
	}
	log.Printf("Artifacts written to %s", cfg.ArtifactsDir)
	return nil
}
