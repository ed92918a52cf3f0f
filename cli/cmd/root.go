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

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsjs/usertoken/internal/blob"
	"github.com/fsjs/usertoken/internal/flag"
	"github.com/fsjs/usertoken/internal/log"
	"github.com/fsjs/usertoken/internal/store"
	"github.com/posener/complete/cmd/install"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Name is the name of the command and of its completion entry.
const Name = "usertoken"

// Execute runs the command line in os.Args and returns the exit code.
// This is called by main.main().
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

// app holds the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	config  flag.Config

	log    log.Log
	events *log.EventFile
	store  *store.Store
}

// NewRootCmd returns the usertoken command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var installCompletion, uninstallCompletion bool
	cmd := &cobra.Command{
		Use:   Name,
		Short: "Manage user tokens",
		Long: `
usertoken keeps a small store of per-user tokens in a single JSON document.

Each token is the CRC-32 checksum of the username in hex. It is an identifier,
not a credential.

Store Settings

Use --store to point at the token document, if not at
~/.usertoken/tokens.json. Any afs URL such as mem://localhost/tokens.json is
accepted too. Settings may also come from USERTOKEN_* environment variables,
a .env file or ~/.usertoken.yaml.`[1:],
		Version:           revision(),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case installCompletion && uninstallCompletion:
				return fmt.Errorf(
					"--install-completion and --uninstall-completion may not be used together")
			case installCompletion:
				return install.Install(Name)
			case uninstallCompletion:
				return install.Uninstall(Name)
			}
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"Config file (default ~/"+flag.ConfigName+".yaml)")
	flag.AddFlags(flags)

	cmd.Flags().BoolVar(&installCompletion, "install-completion", false,
		"Install shell completion for "+Name)
	cmd.Flags().BoolVar(&uninstallCompletion, "uninstall-completion", false,
		"Uninstall shell completion for "+Name)

	cmd.AddCommand(newTokenCmd(a))
	return cmd
}

func revision() string {
	if flag.Revision == "" {
		return "unknown"
	}
	return flag.Revision
}

// setup loads the settings and opens the store for every command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.config, err = flag.Load(a.v, cmd.Flags(), a.cfgFile); err != nil {
		return err
	}

	log.Debug = a.config.Debug
	a.log = log.New("pkg", "token")
	// Events are always recorded in the event file. They are echoed on
	// stderr only when debugging, as commands print their own results.
	if a.config.Debug {
		a.log.Logger.SetOutput(cmd.ErrOrStderr())
	} else {
		a.log.Logger.SetOutput(io.Discard)
	}
	if a.config.LogDir != "" {
		if a.events, err = log.NewEventFile(a.config.LogDir); err != nil {
			return err
		}
		a.log.Logger.AddHook(a.events)
	}
	a.log.Debugf("Using token store %v", a.config.Store)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debugf("Using config file %v", used)
	}

	opts := []store.Option{
		store.WithObserver(a.observer()),
		store.WithLockRetry(a.config.LockRetry),
	}
	b := blob.Open(a.config.Store)
	if f, ok := b.(*blob.File); ok {
		lockPath, err := filepath.Abs(f.Path() + ".lock")
		if err != nil {
			return err
		}
		opts = append(opts, store.WithLockFile(lockPath))
	}
	a.store = store.New(b, opts...)
	return nil
}

func (a *app) observer() store.Observer { return log.Observer{Log: a.log} }

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.events == nil {
		return
	}
	if err := a.events.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
