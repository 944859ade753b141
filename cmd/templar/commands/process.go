package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/templar/internal/logger"
	"github.com/jmylchreest/templar/internal/output"
	"github.com/jmylchreest/templar/pkg/templar"
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Sanitize and annotate templates",
	Long: `Run both passes over each template and write the result.

Reads stdin when no files are given. The json, jsonl and yaml formats
write the annotated HTML, the wrapped style block, the class names in
use and the extracted fields. The html format writes the final page
with the style block placed in <head>.

Examples:
  templar process invoice.html
  cat invoice.html | templar process --format yaml
  templar process -c 8 --format jsonl templates/*.html > out.jsonl`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml, html")
	flags.Bool("pretty", true, "indent JSON and HTML output")
	flags.Bool("stats", false, "print per-template statistics to stderr")

	// Processing settings
	flags.IntP("concurrency", "c", 4, "templates processed concurrently")
	flags.String("max-size", "10MB", "max template size (e.g., 512KB, 10MB, 0=unlimited)")
	flags.Bool("unique", false, "report field ids used more than once")
}

func runProcess(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
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

	pretty, _ := cmd.Flags().GetBool("pretty")
	writer, err := output.NewWriter(out, format, output.WithPretty(pretty))
	if err != nil {
		logger.Error("failed to create output writer", "format", format, "error", err)
		return err
	}
	defer func() { _ = writer.Close() }()

	showStats, _ := cmd.Flags().GetBool("stats")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.ForTemplate(r.Name).Error("template failed", "error", r.Err)
			if format == output.FormatHTML {
				continue
			}
		}
		if showStats && r.Err == nil {
			printStats(cmd.ErrOrStderr(), r)
		}
		for _, fe := range r.FieldErrors {
			logger.ForTemplate(r.Name).Warn("invalid field", "error", fe.Error())
		}
		if err := writer.Write(r); err != nil {
			logger.Error("failed to write result", "template", r.Name, "error", err)
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(results))
	}
	logInfo("processed %d template(s)", len(results))
	return nil
}

// processInputs reads the templates named by args and runs the pipeline.
func processInputs(ctx context.Context, cmd *cobra.Command, args []string) ([]*templar.Result, error) {
	cfg, err := sanitizeConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	maxSizeStr, _ := cmd.Flags().GetString("max-size")
	maxSize, err := parseSize(maxSizeStr)
	if err != nil {
		return nil, err
	}
	docs, err := readDocuments(cmd.InOrStdin(), args, maxSize)
	if err != nil {
		return nil, err
	}

	unique, _ := cmd.Flags().GetBool("unique")
	p, err := templar.New(
		templar.WithConfig(cfg),
		templar.WithUniqueFieldIDs(unique),
	)
	if err != nil {
		return nil, err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	logger.Debug("processing templates", "count", len(docs), "concurrency", concurrency)
	return p.ProcessMany(ctx, docs, concurrency), nil
}

// openOutput returns the -o file, or the command's stdout.
func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		logger.Error("failed to create output file", "path", outPath, "error", err)
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func printStats(w io.Writer, r *templar.Result) {
	s, a := r.StructureStats, r.AnnotateStats
	_, _ = fmt.Fprintf(w, "%s: %s -> %s, %d removed, %d styles, %d fields, %d marked, %d isolated, %s\n",
		r.Name,
		humanize.Bytes(uint64(s.InputBytes)),
		humanize.Bytes(uint64(a.OutputBytes)),
		s.TotalRemoved(),
		s.StylesExtracted,
		s.FieldsExtracted,
		s.ElementsMarked+a.ElementsMarked,
		a.TextIsolated,
		r.Duration.Round(time.Microsecond),
	)
}
