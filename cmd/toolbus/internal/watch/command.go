package watch

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
	"github.com/drblury/toolbus/internal/runtime/client"
)

func NewWatchCommand(global *internal.GlobalOptions) *cobra.Command {
	var buffer int

	cmd := &cobra.Command{
		Use:   "watch <pattern>",
		Short: "Print every decodable envelope published on a subject pattern",
		Args:  cobra.ExactArgs(1),
		Example: `  toolbus watch 'runtime.>'
  toolbus watch '*.call-tool.*.*'
  toolbus watch handshake`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := internal.SignalContext(cmd.Context())
			defer stop()

			session, err := internal.Open(ctx, global)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			sub, err := session.Client.Subscribe(ctx, args[0], client.WithBuffer(buffer))
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			for env := range sub.All(ctx) {
				if err := internal.PrintEnvelope(os.Stdout, env); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&buffer, "buffer", 0, "Envelopes buffered ahead of printing (default from config)")

	return cmd
}
