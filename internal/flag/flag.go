// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

// Package flag resolves the usertoken settings from command line flags,
// environment variables, an optional .env file and an optional config file,
// in that order of precedence.
package flag

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/posener/complete"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Revision is set at build time with -ldflags "-X ...flag.Revision=...".
var Revision string

// Environment variable name prefix, e.g. USERTOKEN_STORE.
const envPrefix = "USERTOKEN"

// ConfigName is the base name of the config file searched in the home
// directory, e.g. ~/.usertoken.yaml.
const ConfigName = ".usertoken"

var (
	defaults = map[string]interface{}{
		"store": func() string {
			if home, err := homedir.Dir(); err == nil {
				return filepath.Join(home, ".usertoken", "tokens.json")
			}
			return "./tokens.json"
		}(),
		"logdir":    "",
		"debug":     false,
		"lockretry": 50 * time.Millisecond,
	}
	descriptions = map[string]string{
		"store":     "Path or URL of the token document",
		"logdir":    "Directory for the daily event log, disabled if empty",
		"debug":     "Log debug messages and echo events to stderr",
		"lockretry": "Wait between attempts to take a busy store lock",
	}

	// Cmpl predicts the values of the flags added by AddFlags.
	Cmpl = complete.Flags{
		"--store":     complete.PredictFiles("*.json"),
		"--logdir":    complete.PredictDirs("*"),
		"--debug":     complete.PredictNothing,
		"--lockretry": complete.PredictAnything,
		"--config":    complete.PredictFiles("*"),
	}
)

type Config struct {
	Store     string
	LogDir    string
	Debug     bool
	LockRetry time.Duration
}

// AddFlags registers the settings on flags.
func AddFlags(flags *flag.FlagSet) {
	flags.String("store", defaults["store"].(string), descriptions["store"])
	flags.String("logdir", defaults["logdir"].(string), descriptions["logdir"])
	flags.Bool("debug", defaults["debug"].(bool), descriptions["debug"])
	flags.Duration("lockretry", defaults["lockretry"].(time.Duration),
		descriptions["lockretry"])
}

// Load resolves the Config. If cfgFile is empty, ConfigName is looked up in
// the home directory and may be absent.
func Load(v *viper.Viper, flags *flag.FlagSet, cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("godotenv.Load(): %w", err)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(ConfigName)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	store, err := homedir.Expand(v.GetString("store"))
	if err != nil {
		return Config{}, err
	}
	logDir, err := homedir.Expand(v.GetString("logdir"))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Store:     store,
		LogDir:    logDir,
		Debug:     v.GetBool("debug"),
		LockRetry: v.GetDuration("lockretry"),
	}
	if cfg.Store == "" {
		return Config{}, fmt.Errorf("--store may not be empty")
	}
	if cfg.LockRetry <= 0 {
		return Config{}, fmt.Errorf("--lockretry must be positive")
	}
	return cfg, nil
}
