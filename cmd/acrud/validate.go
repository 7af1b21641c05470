package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/spf13/cobra"
)

var (
	validateData string
	validateJSON bool
)

// ValidateResult is the --json output of validate
type ValidateResult struct {
	Table  string                  `json:"table"`
	Valid  bool                    `json:"valid"`
	Errors engine.ValidationErrors `json:"errors"`
}

var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <table>",
	Short: "Validate a record against a table's schema",
	Long: `Check a record against the table's columns without writing it.

Examples:
  acrud validate users --data '{"email":"ana@mail.com","age":30}'
  acrud validate users --data @user.json --json
  echo '{"email":""}' | acrud validate users --data -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := args[0]

		record, err := readRecord(validateData, os.Stdin)
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

		errs, err := sess.engine.Validate(cmd.Context(), table, record)
		if err != nil {
			return err
		}

		if validateJSON {
			if errs == nil {
				errs = engine.ValidationErrors{}
			}
			if err := printJSON(ValidateResult{Table: table, Valid: errs.Valid(), Errors: errs}); err != nil {
				return err
			}
		} else {
			fmt.Print(engine.FormatValidationErrors(table, errs))
		}

		if !errs.Valid() {
			return errValidationFailed
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateData, "data", "d", "", "record as JSON, @file or - for stdin")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(validateCmd)
}
