package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataPath string
	env      string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dash",
	Short: "COVID-19 & Healthy Diet dashboard",
	Long: `COVID-19 & Healthy Diet dashboard

Serves an interactive dashboard crossing COVID-19 outcomes with the
food supply of each country, and inspects, exports or snapshots the
cleaned dataset.

Usage:
  go run ./cmd/dash [command]

Examples:
  go run ./cmd/dash serve
  go run ./cmd/dash inspect --top 10 --by Deaths
  go run ./cmd/dash export --format xlsx --out dataset.xlsx
  go run ./cmd/dash snapshot --schedule`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "dataset CSV (default is DATA_PATH)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
