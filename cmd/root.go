package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arjunpat/mathrise/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mathrise",
	Short: "Adaptive math mastery and progression service",
	Long:  "Mathrise tracks student attempts and drives mastery estimation, spaced-repetition review, streaks, and achievements.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MATHRISE_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MATHRISE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
