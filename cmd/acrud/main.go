package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

var (
	verbose     bool
	debugSQL    bool
	configPath  string
	databaseURL string
	schemaFile  string
)

var rootCmd = &cobra.Command{
	Use:   "acrud",
	Short: "Schema-aware record validation and saving",
	Long: `ACRUD validates records against a relational table's live schema
and saves them with a single INSERT or UPDATE.

The schema comes from the database itself (PostgreSQL or MySQL), from a
YAML schema file, or from a Redis cache in front of either.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./.acrud.yml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database connection string (overrides config and DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "YAML schema file used instead of introspection")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debugSQL, "debug", false, "print SQL statements")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

func printSuccess(format string, args ...any) {
	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf(format+"\n", args...)
}

func printInfo(format string, args ...any) {
	color.New(color.FgCyan).Print("• ")
	fmt.Printf(format+"\n", args...)
}

func printWarning(format string, args ...any) {
	color.New(color.FgYellow).Print("! ")
	fmt.Printf(format+"\n", args...)
}

func printError(format string, args ...any) {
	color.New(color.FgRed).Fprint(os.Stderr, "✗ ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
