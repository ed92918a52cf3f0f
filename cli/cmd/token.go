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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fsjs/usertoken/internal/store"
	"github.com/posener/complete"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

// SourceApp identifies notifications from the token command itself.
const SourceApp = "token.tokenApp()"

// tokenModes are the mutually exclusive flags of the token command.
var tokenModes = []string{"count", "list", "new", "upd", "fetch", "search", "init"}

var tokenCmplFlags = complete.Flags{
	"--upd":    complete.PredictSet("p", "e"),
	"--search": complete.PredictSet("u", "e", "p"),
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
token --count | --list | --init
  token --new USERNAME | --fetch USERNAME
  token --upd p|e USERNAME VALUE
  token --search u|e|p VALUE`[1:],
		Short: "Create, list, fetch, search and update tokens",
		Long: `
Manage the token records of the store.

Exactly one of the flags below selects what to do. Usernames are not unique:
--new always appends a record, --fetch prints every record of the user and
--upd updates every record of the user.

New records get the default email default@gmail.com, phone 9999999999 and
confirmation status "tbd", and expire 3 days after creation.`[1:],
		Example: `
  usertoken token --new alice
  usertoken token --upd p alice 5551234
  usertoken token --search e alice@example.com`[1:],
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE:               a.runToken,
	}
	flags := cmd.Flags()
	flags.Bool("count", false, "Print the number of tokens")
	flags.Bool("list", false, "List the username and token of every record")
	flags.Bool("new", false, "Create a token for USERNAME")
	flags.Bool("upd", false, "Set the phone (p) or email (e) of USERNAME to VALUE")
	flags.Bool("fetch", false, "Print every record of USERNAME")
	flags.Bool("search", false, "Print every record whose username (u), email (e) or phone (p) is VALUE")
	flags.Bool("init", false, "Create an empty token store if there is none")

	help := cmd.HelpFunc()
	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		// --help stops cobra before PersistentPreRunE.
		if a.store == nil {
			if err := a.setup(cmd, args); err != nil {
				help(cmd, args)
				return
			}
			defer a.teardown(cmd, args)
			a.notify(store.Info, "token option was called by CLI")
		}
		a.notify(store.Info, "invalid CLI option, usage displayed")
		help(cmd, args)
	})
	return cmd
}

func (a *app) runToken(cmd *cobra.Command, args []string) error {
	a.notify(store.Info, "token option was called by CLI")

	var modes []string
	for _, mode := range tokenModes {
		if on, _ := cmd.Flags().GetBool(mode); on {
			modes = append(modes, mode)
		}
	}
	switch len(modes) {
	case 0:
		return cmd.Help()
	case 1:
	default:
		return fmt.Errorf("--%v may not be used together",
			strings.Join(modes, " and --"))
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch mode := modes[0]; mode {
	case "count":
		if err := exactArgs(mode, args); err != nil {
			return err
		}
		n, err := a.store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Gamers with tokens: %v.\n", n)

	case "list":
		if err := exactArgs(mode, args); err != nil {
			return err
		}
		entries, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "** User List **")
		for _, e := range entries {
			fmt.Fprintf(out, " * %v: %v\n", e.Username, e.Token)
		}

	case "init":
		if err := exactArgs(mode, args); err != nil {
			return err
		}
		created, err := a.store.Init(ctx)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "Created empty token store %v.\n", a.config.Store)
		} else {
			fmt.Fprintf(out, "Token store %v already exists.\n", a.config.Store)
		}

	case "new":
		if err := exactArgs(mode, args, "USERNAME"); err != nil {
			return err
		}
		r, err := a.store.Create(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "New token %v was created for %v expires on %v.\n",
			r.Token, r.Username, r.Expires)

	case "upd":
		if err := exactArgs(mode, args, "p|e", "USERNAME", "VALUE"); err != nil {
			return err
		}
		if _, err := a.store.Update(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Token record for %v was updated with %v.\n",
			args[1], args[2])

	case "fetch":
		if err := exactArgs(mode, args, "USERNAME"); err != nil {
			return err
		}
		records, err := a.store.Fetch(ctx, args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No token record for %v.\n", args[0])
		}
		for _, r := range records {
			if err := printRecord(out, r); err != nil {
				return err
			}
		}

	case "search":
		if err := exactArgs(mode, args, "u|e|p", "VALUE"); err != nil {
			return err
		}
		field, err := store.ParseField(args[0])
		if err != nil {
			return err
		}
		matches, err := a.store.Search(ctx, store.QueryBy(field, args[1]))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintf(out, "No token record with %v %v.\n", field, args[1])
		}
		for _, m := range matches {
			if err := printRecord(out, m.Record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) notify(level store.Level, msg string) {
	a.observer().Notify(SourceApp, level, msg)
}

// exactArgs returns an error unless args holds one value per name.
func exactArgs(mode string, args []string, names ...string) error {
	if len(args) == len(names) {
		return nil
	}
	if len(names) == 0 {
		return fmt.Errorf("--%v takes no arguments, received %v", mode, len(args))
	}
	return fmt.Errorf("--%v requires %v, received %v argument(s)",
		mode, names, len(args))
}

func printRecord(out io.Writer, r store.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = out.Write(pretty.Pretty(data))
	return err
}
