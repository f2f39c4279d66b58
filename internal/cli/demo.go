package cli

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"rehabit/internal/config"
	"rehabit/internal/demo"
	"rehabit/internal/store"
)

var (
	demoUserID int64
	demoDays   int
	demoSeed   int64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Seed the database with generated demo activity",
	Long:  "Generates a realistic morning-person activity history and logs it for the given user, creating the user first if needed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd.Context(), demoUserID, demoDays, demoSeed)
	},
}

func init() {
	demoCmd.Flags().Int64Var(&demoUserID, "user-id", 0, "target user (0 creates a demo user)")
	demoCmd.Flags().IntVar(&demoDays, "days", 14, "days of history to generate")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 42, "random seed")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(ctx context.Context, userID int64, days int, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if userID == 0 {
		user, err := st.CreateUser(ctx, "Demo User", "demo@rehabit.local")
		if errors.Is(err, store.ErrEmailTaken) {
			return errors.New("demo user already exists, pass --user-id to add more history")
		}
		if err != nil {
			return err
		}
		userID = user.ID
		log.Printf("Created demo user %d", userID)
	} else if _, err := st.GetUser(ctx, userID); err != nil {
		return err
	}

	records := demo.Generate(userID, days, seed)
	var total int
	for _, rec := range records {
		if _, err := st.LogActivity(ctx, rec); err != nil {
			return err
		}
		total += rec.ProductivityScore
	}

	log.Printf("Generated %d activities over %d days for user %d", len(records), days, userID)
	if len(records) > 0 {
		log.Printf("Average productivity: %.2f/10", float64(total)/float64(len(records)))
	}
	log.Printf("Next step: rehabit train --user-id %d", userID)
	return nil
}
