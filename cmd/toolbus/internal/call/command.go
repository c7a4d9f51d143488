package call

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
	"github.com/drblury/toolbus/internal/runtime/client"
	"github.com/drblury/toolbus/internal/runtime/jsoncodec"
	"github.com/drblury/toolbus/internal/runtime/protocol"
)

type options struct {
	workspace string
	tool      string
	from      string
	runtimeID string
	args      string
	timeout   time.Duration
	retry     bool
}

func NewCallCommand(global *internal.GlobalOptions) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Send a call-tool request and print the reply",
		Args:  cobra.NoArgs,
		Example: `  toolbus call --workspace ws1 --tool echo --from orchestrator
  toolbus call --workspace ws1 --tool echo --from orchestrator --runtime rt-1 --args '{"text":"hi"}' --retry`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			call, err := opts.toolCall()
			if err != nil {
				return err
			}
			env, err := protocol.ToolCallKind.Create(call)
			if err != nil {
				return err
			}

			ctx, stop := internal.SignalContext(cmd.Context())
			defer stop()

			session, err := internal.Open(ctx, global)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			var reqOpts []client.RequestOption
			if opts.timeout > 0 {
				reqOpts = append(reqOpts, client.WithTimeout(opts.timeout))
			}
			if cmd.Flags().Changed("retry") {
				reqOpts = append(reqOpts, client.WithRetryOnTimeout(opts.retry))
			}

			resp, err := session.Client.Request(ctx, env, reqOpts...)
			if err != nil {
				return err
			}
			return internal.PrintEnvelope(os.Stdout, resp)
		},
	}

	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "Workspace id (subject tenant)")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Tool id to call")
	cmd.Flags().StringVar(&opts.from, "from", "", "Caller id")
	cmd.Flags().StringVar(&opts.runtimeID, "runtime", "", "Pin the call to this runtime id")
	cmd.Flags().StringVar(&opts.args, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Reply window per attempt (default from config)")
	cmd.Flags().BoolVar(&opts.retry, "retry", false, "Retry once when the first attempt times out")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("tool")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (o options) toolCall() (protocol.ToolCall, error) {
	call := protocol.ToolCall{
		WorkspaceID: o.workspace,
		ToolID:      o.tool,
		From:        o.from,
		RuntimeID:   o.runtimeID,
	}
	if o.args != "" {
		if err := jsoncodec.Unmarshal([]byte(o.args), &call.Arguments); err != nil {
			return protocol.ToolCall{}, fmt.Errorf("--args: %w", err)
		}
	}
	return call, nil
}
