package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/spf13/cobra"
)

var (
	saveData string
	saveJSON bool
)

var saveCmd = &cobra.Command{
	Use:   "save <table>",
	Short: "Validate a record and insert or update it",
	Long: `Validate a record and write it with a single statement.

A record carrying a non-empty primary key updates that row; otherwise a new
row is inserted. created_at and updated_at are stamped when the table has
them.

Examples:
  acrud save users --data '{"email":"ana@mail.com"}'
  acrud save users --data '{"id":7,"name":"Ana"}' --debug`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := args[0]

		record, err := readRecord(saveData, os.Stdin)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sess, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		result, err := sess.engine.ValidateAndSave(cmd.Context(), table, record)
		if err != nil {
			var verrs engine.ValidationErrors
			if errors.As(err, &verrs) {
				fmt.Print(engine.FormatValidationErrors(table, verrs))
				return errValidationFailed
			}
			return err
		}

		if saveJSON {
			return printJSON(result.Map())
		}

		if result.Inserted {
			printSuccess("Inserted into %s (id %s)", table, result.ID)
		} else {
			printSuccess("Updated %s (id %s)", table, result.ID)
		}
		if verbose {
			for _, field := range result.Payload.Fields() {
				fmt.Printf("  %s = %s\n", field, result.Payload[field])
			}
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVarP(&saveData, "data", "d", "", "record as JSON, @file or - for stdin")
	saveCmd.Flags().BoolVar(&saveJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(saveCmd)
}
