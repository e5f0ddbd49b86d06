// Package cli is the statetoggle command line: it clicks through pages, runs scenario
// files, audits markup and serves a page for remote clicking.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errFailed is returned when a command ran but found problems; the message has already
// been printed.
var errFailed = errors.New("failed")

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "statetoggle",
	Short: "Drive data-attribute state toggles on HTML pages",
	Long: `Elements carrying data-target, data-add-state, data-remove-state, data-focus and
data-prevent-default toggle classes on other elements when clicked.
statetoggle loads pages, clicks them, checks scenarios, audits markup and serves pages for
remote clicking.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return configureLogger(cmd.ErrOrStderr())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", defaultConfigPath, "Config file path")
	f.String("log-level", "info", "Log level: debug|info|warn|error")
	f.String("log-format", "text", "Log format: text|json")
	f.Bool("color", false, "Force color output")

	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureLogger(w io.Writer) error {
	level, err := logrus.ParseLevel(getStringWithFallback("log-level", "log.level", "info"))
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	log.SetLevel(level)
	log.SetOutput(w)

	switch format := getStringWithFallback("log-format", "log.format", "text"); format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return errors.Errorf("unknown log format %q", format)
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if err != errFailed {
			fmt.Fprintln(os.Stderr, StyleRed.Render("error:"), err)
		}
		return 1
	}
	return 0
}
