package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wudi/scan2doc/observability"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scan2doc",
	Short: "Convert tagged OCR output into Markdown, Word and sandwich PDF",
	Long: `scan2doc turns the tagged output of a DeepSeek-OCR run (raw text with
layout markers plus detection boxes) into editable documents:

- reflowed Markdown that preserves multi-column layout
- a Word-compatible .docx with tables, figures and math
- a sandwich PDF: the scanned page image with an invisible text layer

Examples:
  scan2doc convert --image page.jpg --ocr page.json --out build
  scan2doc merge book.pdf page1.pdf page2.pdf page3.pdf`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., $HOME/.config/scan2doc)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scan2doc")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/scan2doc")
		}
	}
	viper.SetEnvPrefix("SCAN2DOC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}
}

func newLogger() observability.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return observability.NewSlogLogger(slog.New(handler))
}
