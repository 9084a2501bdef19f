package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type eventHandler interface {
	Handle(ctx context.Context, raw json.RawMessage) (any, error)
}

func newInvokeCmd() *cobra.Command {
	var workflow bool

	cmd := &cobra.Command{
		Use:   "invoke [file|-]",
		Short: "Invoke the handler with one raw event",
		Long: `Invoke reads a single event, either an API Gateway proxy request or a
Step Functions input, passes it to the handler and prints the JSON result.

Examples:
    recordctl invoke testdata/post.json
    echo '{"httpMethod":"GET"}' | recordctl invoke -
    recordctl invoke --workflow`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.store.Close()

			raw, err := readEvent(args, workflow, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runInvoke(ctx, e.handler(nil), raw, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&workflow, "workflow", false, "Send an empty workflow event instead of reading one")

	return cmd
}

func readEvent(args []string, workflow bool, stdin io.Reader) (json.RawMessage, error) {
	if workflow {
		if len(args) > 0 {
			return nil, fmt.Errorf("--workflow takes no event file")
		}
		return json.RawMessage(`{}`), nil
	}

	var (
		b   []byte
		err error
	)
	switch {
	case len(args) == 0 || args[0] == "-":
		b, err = io.ReadAll(stdin)
	default:
		b, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("read event: not valid JSON")
	}
	return b, nil
}

func runInvoke(ctx context.Context, h eventHandler, raw json.RawMessage, out io.Writer) error {
	res, err := h.Handle(ctx, raw)
	if err != nil {
		return fmt.Errorf("invocation failed: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
