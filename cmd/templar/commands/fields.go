package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/templar/internal/logger"
	"github.com/jmylchreest/templar/internal/output"
	"github.com/jmylchreest/templar/pkg/field"
)

// errInvalidFields makes the command exit non-zero without printing usage.
var errInvalidFields = errors.New("templates declare invalid fields")

// fieldReport is the output of the fields command for one template.
type fieldReport struct {
	Template string                  `json:"template" yaml:"template"`
	Fields   []field.Definition      `json:"fields" yaml:"fields"`
	Errors   []field.ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Error    string                  `json:"error,omitempty" yaml:"error,omitempty"`
}

var fieldsCmd = &cobra.Command{
	Use:   "fields [files...]",
	Short: "List and validate the fields templates declare",
	Long: `Extract the data-field-* definitions of each template and validate them.

A field needs an id and a name. Its data type must be empty or
"increment", and an increment needs a start-from of zero or more.
Exits non-zero when any field is invalid.

Examples:
  templar fields invoice.html
  templar fields --unique --format yaml templates/*.html`,
	RunE: runFields,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)

	flags := fieldsCmd.Flags()
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.Bool("unique", false, "report field ids used more than once")
	flags.IntP("concurrency", "c", 4, "templates processed concurrently")
	flags.String("max-size", "10MB", "max template size (e.g., 512KB, 10MB, 0=unlimited)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
}

func runFields(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	if format == output.FormatHTML {
		return errors.New("fields cannot be written as html")
	}

	results, err := processInputs(ctx, cmd, args)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	writer, err := output.NewWriter(out, format)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	invalid := false
	for _, r := range results {
		report := fieldReport{Template: r.Name, Fields: r.Fields, Errors: r.FieldErrors}
		if r.Err != nil {
			report.Error = r.Err.Error()
		}
		if !r.Valid() {
			invalid = true
			logger.ForTemplate(r.Name).Debug("invalid template", "field_errors", len(r.FieldErrors))
		}
		if err := writer.Write(report); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if invalid {
		return errInvalidFields
	}
	return nil
}
