package cli

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/heathj/statetoggle/audit"
)

const (
	defaultConfigPath = ".statetoggle.yaml"
	envPrefix         = "STATETOGGLE_"
)

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// Only flags that were explicitly set, so flag defaults never mask the file.
	fs := cmd.Flags()
	setOnly := func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(fs, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, setOnly), nil); err != nil {
		return errors.Wrap(err, "loading command flags")
	}
	return nil
}

// loadConfigFromPath loads the config file, if it exists, and the environment.
func loadConfigFromPath(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return errors.Wrapf(err, "loading config file %s", configPath)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return errors.Wrap(err, "loading environment variables")
	}
	return nil
}

// envKey maps STATETOGGLE_AUDIT_IGNORE_FILE to audit.ignore-file: the first underscore
// separates the section, later ones stand for dashes.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[:i] + "." + strings.ReplaceAll(s[i+1:], "_", "-")
	}
	return s
}

func buildAuditConfig(patterns []string) audit.Config {
	config := audit.Config{
		Root:       getStringWithFallback("root", "audit.root", "."),
		IgnoreFile: getStringWithFallback("ignore-file", "audit.ignore-file", ".gitignore"),
		Patterns:   patterns,
	}
	if len(config.Patterns) == 0 {
		config.Patterns = k.Strings("audit.patterns")
	}
	if len(config.Patterns) == 0 {
		config.Patterns = []string{"**/*.html"}
	}
	return config
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getDurationWithFallback checks the flag key first, then the config file key, then returns the default.
func getDurationWithFallback(flagKey, configKey string, defaultVal time.Duration) time.Duration {
	if k.Exists(flagKey) {
		return k.Duration(flagKey)
	}
	if k.Exists(configKey) {
		return k.Duration(configKey)
	}
	return defaultVal
}
