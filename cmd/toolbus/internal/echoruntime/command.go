package echoruntime

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
	"github.com/drblury/toolbus/internal/runtime/client"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/protocol"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

type options struct {
	tool        string
	runtimeID   string
	workspace   string
	concurrency int
}

func NewEchoRuntimeCommand(global *internal.GlobalOptions) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "echo-runtime",
		Short: "Run a demo runtime that answers tool calls with their arguments",
		Args:  cobra.NoArgs,
		Example: `  toolbus echo-runtime --tool echo --runtime-id rt-1
  toolbus echo-runtime --tool echo --runtime-id rt-1 --workspace ws1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := subjects.ValidID(opts.tool); err != nil {
				return fmt.Errorf("--tool: %w", err)
			}
			if err := subjects.ValidID(opts.runtimeID); err != nil {
				return fmt.Errorf("--runtime-id: %w", err)
			}

			ctx, stop := internal.SignalContext(cmd.Context())
			defer stop()

			session, err := internal.Open(ctx, global)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			sub, err := session.Client.Subscribe(ctx, subjects.ToolCallFor(opts.tool))
			if err != nil {
				return err
			}

			if opts.workspace != "" {
				if err := announce(ctx, session.Client, opts); err != nil {
					return err
				}
			}

			session.Log.Info("Echo runtime serving", logging.LogFields{
				"tool":       opts.tool,
				"runtime_id": opts.runtimeID,
			})

			err = session.Client.Serve(ctx, sub, Handler(opts.runtimeID), client.WithConcurrency(opts.concurrency))
			_ = sub.Drain(context.WithoutCancel(ctx))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.tool, "tool", "echo", "Tool id to answer")
	cmd.Flags().StringVar(&opts.runtimeID, "runtime-id", "", "Runtime id reported as executedBy")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "Announce the tool to this workspace on start")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Concurrent handlers (default from config)")
	_ = cmd.MarkFlagRequired("runtime-id")

	return cmd
}

// Handler answers call-tool requests with their own arguments.
func Handler(runtimeID string) client.Handler {
	return func(_ context.Context, req messages.Envelope) (messages.Envelope, error) {
		call, ok := messages.As[protocol.ToolCall](req)
		if !ok {
			return nil, fmt.Errorf("unsupported request type %q", req.Type())
		}
		return protocol.ToolResultKind.Create(protocol.ToolResult{
			Result:     call.Payload().Arguments,
			ExecutedBy: runtimeID,
		})
	}
}

func announce(ctx context.Context, c *client.Client, opts options) error {
	env, err := protocol.DiscoveredToolsKind.Create(protocol.Announcement[protocol.Tool]{
		WorkspaceID: opts.workspace,
		RuntimeID:   opts.runtimeID,
		Items: []protocol.Tool{{
			ID:          opts.tool,
			Name:        opts.tool,
			Description: "Echoes its arguments",
		}},
	})
	if err != nil {
		return err
	}
	return c.Publish(ctx, env)
}
