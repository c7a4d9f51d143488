package handshake

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
	"github.com/drblury/toolbus/internal/runtime/client"
	"github.com/drblury/toolbus/internal/runtime/config"
	"github.com/drblury/toolbus/internal/runtime/protocol"
)

type options struct {
	name    string
	hostIP  string
	timeout time.Duration
}

func NewHandshakeCommand(global *internal.GlobalOptions) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Announce a runtime to the orchestrator and print the assigned identity",
		Long: `Sends a handshake request authenticated with WORKSPACE_KEY (plus SKILL_NAME)
or SKILL_KEY taken from the environment.`,
		Args: cobra.NoArgs,
		Example: `  WORKSPACE_KEY=... SKILL_NAME=search toolbus handshake --name search-runtime
  SKILL_KEY=... toolbus handshake`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := internal.SignalContext(cmd.Context())
			defer stop()

			session, err := internal.Open(ctx, global)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			hs, err := newHandshake(session.Config, opts)
			if err != nil {
				return err
			}
			env, err := protocol.HandshakeKind.Create(hs)
			if err != nil {
				return err
			}

			var reqOpts []client.RequestOption
			if opts.timeout > 0 {
				reqOpts = append(reqOpts, client.WithTimeout(opts.timeout))
			}
			resp, err := session.Client.Request(ctx, env, reqOpts...)
			if err != nil {
				return err
			}
			return internal.PrintEnvelope(os.Stdout, resp)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Runtime name (default: host name)")
	cmd.Flags().StringVar(&opts.hostIP, "host-ip", "", "Host IP reported to the orchestrator")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Reply window (default from config)")

	return cmd
}

func newHandshake(cfg *config.Config, opts options) (protocol.Handshake, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return protocol.Handshake{}, err
	}

	hostname, _ := os.Hostname()
	name := opts.name
	if name == "" {
		name = hostname
	}

	return protocol.Handshake{
		Name:         name,
		PID:          os.Getpid(),
		HostIP:       opts.hostIP,
		Hostname:     hostname,
		Version:      internal.GetVersion(),
		WorkspaceKey: cfg.WorkspaceKey,
		SkillKey:     cfg.SkillKey,
		SkillName:    cfg.SkillName,
	}, nil
}
