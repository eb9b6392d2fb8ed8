// Command flowquery runs a single FlowQuery statement and prints its
// result as JSON. It is a single-shot runner, not an interactive shell —
// the REPL/browser host shell spec.md lists is explicitly out of scope.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowquery/flowquery/config"
	"github.com/flowquery/flowquery/format"
	"github.com/flowquery/flowquery/runner"
	"github.com/flowquery/flowquery/value"
)

func main() {
	var (
		paramsJSON string
		timeout    time.Duration
		pretty     bool
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "flowquery <query>",
		Short: "Run one FlowQuery statement and print its result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logrus.New()
			log.SetOutput(io.Discard)
			if verbose {
				log.SetOutput(os.Stderr)
				log.SetFormatter(&logrus.TextFormatter{})
			}

			params, err := parseParams(paramsJSON)
			if err != nil {
				return err
			}

			eng := runner.NewEngine(cfg, nil, log)

			var deadline time.Time
			if timeout > 0 {
				deadline = time.Now().Add(timeout)
			}

			res, err := eng.Run(context.Background(), args[0], params, deadline)
			if err != nil {
				return err
			}

			opts := format.DefaultOptions
			if pretty {
				opts = format.Pretty
			}
			fmt.Println(format.Rows(res.Rows, opts))
			if verbose {
				fmt.Fprintf(os.Stderr, "rows=%d elapsed=%s limited=%v filtered=%v\n",
					res.Stats.RowCount, res.Stats.Elapsed, res.Stats.Limited, res.Stats.Filtered)
			}
			return nil
		},
	}

	root.Flags().StringVar(&paramsJSON, "params", "", "JSON object of named parameters ($name bindings)")
	root.Flags().DurationVar(&timeout, "timeout", 0, "per-query deadline (0 disables)")
	root.Flags().BoolVar(&pretty, "pretty", false, "pretty-print the JSON result")
	root.Flags().BoolVar(&verbose, "verbose", false, "log query execution to stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseParams(raw string) (map[string]value.Value, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.Wrap(err, "parsing --params")
	}
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		out[k] = value.FromJSON(v)
	}
	return out, nil
}
