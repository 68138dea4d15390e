package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	fileName  = "itemsubmit"
	envPrefix = "itemsubmit"
)

// Config is everything that can be preset for a run. Form fields set here
// only prefill the form; the signer URI is never read from a file.
type Config struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	Collection   string        `mapstructure:"collection" yaml:"collection"`
	SS58Prefix   uint16        `mapstructure:"ss58_prefix" yaml:"ss58_prefix"`
	TypesFile    string        `mapstructure:"types_file" yaml:"types_file,omitempty"`
	ReceiptsFile string        `mapstructure:"receipts_file" yaml:"receipts_file,omitempty"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Language     string        `mapstructure:"language" yaml:"language"`
	Log          Log           `mapstructure:"log" yaml:"log"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// Defaults used when neither file, env nor flags set a key.
func Defaults() map[string]any {
	return map[string]any{
		"url":           "",
		"collection":    "",
		"ss58_prefix":   42,
		"types_file":    "",
		"receipts_file": "",
		"timeout":       "5m",
		"language":      "en",
		"log.level":     "info",
		"log.file":      "",
	}
}

// GetConfigPath returns the path of the user configuration file.
func GetConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, "itemsubmit", fileName+".yaml"), nil
}

// Load resolves the configuration. Precedence, lowest first: defaults,
// config file (explicit path, else user config dir, else cwd), environment
// (ITEMSUBMIT_URL, ITEMSUBMIT_LOG_LEVEL, ...), flags that were set.
func Load(flags *pflag.FlagSet, explicitPath string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		if p, err := GetConfigPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"ss58-prefix":   "ss58_prefix",
	"types-file":    "types_file",
	"receipts-file": "receipts_file",
	"lang":          "language",
	"log-level":     "log.level",
	"log-file":      "log.file",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			if _, known := Defaults()[f.Name]; !known {
				return
			}
			key = f.Name
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = bindErr
		}
	})
	return err
}

// WriteConfigFile writes c to the user configuration file.
func WriteConfigFile(c *Config) (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
