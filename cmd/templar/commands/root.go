// Package commands implements the CLI commands for templar.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/templar/internal/logger"
	"github.com/jmylchreest/templar/pkg/sanitize"
)

var rootCmd = &cobra.Command{
	Use:   "templar",
	Short: "Prepare uploaded HTML templates for in-place editing",
	Long: `Templar sanitizes an uploaded HTML template and annotates it for an
in-place editor.

Style blocks are lifted out of the document, sidebars, outlines and
placeholder nodes are stripped, text is marked editable and focusable,
and the data-field-* slots the template declares are extracted and
validated.

Examples:
  # Process a template and print the result as JSON
  templar process invoice.html

  # Write the final page with the style block restored
  templar process invoice.html --format html --pretty -o out.html

  # Check the fields a batch of templates declares
  templar fields --unique templates/*.html`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.templar.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".templar")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("TEMPLAR")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger initializes the logger from the global flags.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// sanitizeConfig returns the sanitizer rules: defaults overlaid with the
// sanitize section of the config file.
func sanitizeConfig(v *viper.Viper) (*sanitize.Config, error) {
	cfg := sanitize.DefaultConfig()
	if v.IsSet("sanitize") {
		if err := v.UnmarshalKey("sanitize", cfg); err != nil {
			return nil, fmt.Errorf("invalid sanitize config: %w", err)
		}
	}
	if v.GetBool("debug") {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
