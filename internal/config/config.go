// Package config resolves gicowa settings from flags, environment and the
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. GICOWA_MAILTO.
const EnvPrefix = "GICOWA"

// Setting keys, identical to the flag names.
const (
	KeyCredentials = "credentials"
	KeyColor       = "color"
	KeyNoColor     = "no-color"
	KeyMailTo      = "mailto"
	KeyMailFrom    = "mailfrom"
	KeyErrorTo     = "errorto"
	KeyPersist     = "persist"
	KeyState       = "state"
	KeyHistory     = "history"
	KeyVerbose     = "verbose"
)

// Dir returns the gicowa config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/gicowa if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gicowa"), nil
}

// Settings is the resolved configuration of one invocation.
type Settings struct {
	Credentials string
	Color       bool
	NoColor     bool
	MailTo      string
	MailFrom    string
	ErrorTo     string
	Persist     bool
	StatePath   string
	HistoryPath string
	Verbose     bool
	ConfigFile  string // file that was read, empty if none
}

// Load layers flags over GICOWA_* environment variables over the TOML file
// (configFile, or <Dir>/config.toml) over defaults. A missing default config
// file is not an error.
func Load(flags *pflag.FlagSet, configFile string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	s := &Settings{
		Credentials: v.GetString(KeyCredentials),
		Color:       v.GetBool(KeyColor),
		NoColor:     v.GetBool(KeyNoColor),
		MailTo:      v.GetString(KeyMailTo),
		MailFrom:    v.GetString(KeyMailFrom),
		ErrorTo:     v.GetString(KeyErrorTo),
		Persist:     v.GetBool(KeyPersist),
		StatePath:   expandHome(v.GetString(KeyState)),
		HistoryPath: expandHome(v.GetString(KeyHistory)),
		Verbose:     v.GetBool(KeyVerbose),
		ConfigFile:  v.ConfigFileUsed(),
	}

	return s, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
