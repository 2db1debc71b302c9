package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	envFilePath string
	parseOnce   sync.Once
	exportOnce  sync.Once
	exportErr   error
)

// Validator is implemented by config structs that check themselves after loading.
type Validator interface {
	Validate() error
}

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New exports the env file (the -env flag, or ./.env when present) into the
// process environment once, then fills T from variables under prefix.
func New[T any](prefix string) (*T, error) {
	if err := exportEnvFile(); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %s config: %w", displayPrefix(prefix), err)
	}

	if v, ok := any(&conf).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validate %s config: %w", displayPrefix(prefix), err)
		}
	}

	return &conf, nil
}

func exportEnvFile() error {
	exportOnce.Do(func() {
		filepath := resolveEnvPath()
		if filepath != "" {
			if err := exportEnvironment(filepath); err != nil {
				exportErr = fmt.Errorf("failed to load env file: %w", err)
			}
			return
		}
		if err := exportEnvironmentIfExists(".env"); err != nil {
			exportErr = fmt.Errorf("failed to load default env file: %w", err)
		}
	})
	return exportErr
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	if f := flag.Lookup("env"); f != nil {
		return strings.TrimSpace(f.Value.String())
	}
	return strings.TrimSpace(envFilePath)
}

func exportEnvironmentIfExists(filepath string) error {
	info, err := os.Stat(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(filepath)
}

// exportEnvironment never overrides variables already set in the environment.
func exportEnvironment(filepath string) error {
	v := viper.New()
	v.SetConfigFile(filepath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}

	return nil
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "app"
	}
	return strings.ToLower(prefix)
}
