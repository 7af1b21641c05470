package main

import (
	"fmt"

	"github.com/dexit/ACRUD/internal/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and database status",
	Long:  `Display the effective configuration, then connect and list the tables the schema provider sees.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("ACRUD Status")
	fmt.Println("────────────────────────────────────────────")
	fmt.Println()

	showConfiguration(cfg)
	fmt.Println()

	fmt.Println("Database:")
	if cfg.Database.ConnectionString == "" {
		fmt.Println("  Status:          not configured")
		return nil
	}

	sess, err := openSession(cmd.Context(), cfg)
	if err != nil {
		fmt.Printf("  Status:          unreachable (%v)\n", err)
		return nil
	}
	defer sess.Close()

	catalog, err := sess.engine.Catalog(cmd.Context())
	if err != nil {
		fmt.Printf("  Status:          connected, schema unavailable (%v)\n", err)
		return nil
	}

	fmt.Println("  Status:          connected")
	fmt.Printf("  Schema source:   %s\n", sess.source)
	fmt.Printf("  Tables:          %d\n", len(catalog))
	if verbose {
		for _, name := range catalog.TableNames() {
			fmt.Printf("    - %s (%d columns)\n", name, len(catalog[name].Columns))
		}
	}
	return nil
}

func showConfiguration(cfg *config.Config) {
	driver := cfg.DriverName()
	if driver == "" {
		driver = "(unknown)"
	}
	schema := "introspection"
	if cfg.Schema.File != "" {
		schema = cfg.Schema.File
	}
	cache := "off"
	if cfg.Schema.Cache.Enabled {
		cache = fmt.Sprintf("redis %s (ttl %s)", cfg.Schema.Cache.Addr, cfg.Schema.Cache.TTLDuration())
	}
	debug := "off"
	if debugSQL {
		debug = "sql"
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Driver:          %s\n", driver)
	fmt.Printf("  Connection:      %s\n", redactDSN(cfg.Database.ConnectionString))
	fmt.Printf("  Schema:          %s\n", schema)
	fmt.Printf("  Schema cache:    %s\n", cache)
	fmt.Printf("  Server:          %s\n", cfg.Server.Addr())
	fmt.Printf("  Debug Level:     %s\n", debug)
}
