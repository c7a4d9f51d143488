package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
	"github.com/drblury/toolbus/cmd/toolbus/internal/call"
	"github.com/drblury/toolbus/cmd/toolbus/internal/echoruntime"
	"github.com/drblury/toolbus/cmd/toolbus/internal/handshake"
	"github.com/drblury/toolbus/cmd/toolbus/internal/watch"
)

func NewToolbusCommand() *cobra.Command {
	global := &internal.GlobalOptions{}

	cmd := &cobra.Command{
		Use:          "toolbus",
		Short:        "Inspect and exercise the toolbus message protocol over NATS",
		Version:      internal.GetVersion(),
		SilenceUsage: true,
		Example: `  toolbus watch 'runtime.>'
  toolbus call --workspace ws1 --tool echo --from orchestrator --args '{"text":"hi"}'
  toolbus echo-runtime --tool echo --runtime-id rt-1`,
	}

	cmd.PersistentFlags().StringVar(&global.MetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g. :9090)")

	cmd.AddCommand(
		watch.NewWatchCommand(global),
		call.NewCallCommand(global),
		handshake.NewHandshakeCommand(global),
		echoruntime.NewEchoRuntimeCommand(global),
	)

	return cmd
}

func main() {
	cmd := NewToolbusCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
