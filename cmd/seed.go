package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arjunpat/mathrise/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()

		if err := store.Seed(cmd.Context(), db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Println("Demo catalog loaded into", dbPath)
		return nil
	},
}
