// Package commands implements the mkm command line tool.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/natserract/mkm/pkg/config"
	"github.com/natserract/mkm/pkg/credstore"
	"github.com/natserract/mkm/pkg/mkm"
)

// Options wires the commands to their collaborators. Zero fields get the
// production defaults.
type Options struct {
	Logger     *zap.Logger
	Out        io.Writer
	LoadConfig func() (*config.Config, error)
	NewClient  func(cfg *config.Config, logger *zap.Logger) (mkm.API, error)
	Store      *credstore.Store
}

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	Sandbox bool
	JSON    bool
	Profile string
	Output  string
}

type app struct {
	opts   Options
	flags  GlobalFlags
	cfg    *config.Config
	client mkm.API
	store  *credstore.Store
}

type appKey struct{}

func fromContext(ctx context.Context) *app {
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

// NewRootCmd creates the root cobra command.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	if opts.NewClient == nil {
		opts.NewClient = func(cfg *config.Config, logger *zap.Logger) (mkm.API, error) {
			return mkm.NewClientWithLogger(cfg, logger)
		}
	}

	a := &app{opts: opts}

	cmd := &cobra.Command{
		Use:           "mkm",
		Short:         "Command-line client for the Cardmarket API",
		Long:          "mkm signs and sends requests to the Cardmarket marketplace API and prints the parsed responses.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if a.flags.Output != "json" && a.flags.Output != "yaml" {
				return fmt.Errorf("unsupported output %q (want json or yaml)", a.flags.Output)
			}
			a.store = opts.Store
			if a.store == nil {
				a.store = credstore.NewStore(defaultStoreDir(), opts.Logger)
			}
			// Tokens saved while the keyring was unavailable move over once it is.
			if a.store.UsingKeyring() {
				if err := a.store.MigrateToKeyring(); err != nil {
					opts.Logger.Warn("Failed to migrate stored tokens to keyring", zap.Error(err))
				}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}

	cmd.SetOut(opts.Out)
	cmd.PersistentFlags().BoolVar(&a.flags.Sandbox, "sandbox", false, "Use the sandbox environment")
	cmd.PersistentFlags().BoolVar(&a.flags.JSON, "json", false, "Speak JSON to the API instead of XML")
	cmd.PersistentFlags().StringVar(&a.flags.Profile, "profile", "", "Stored token profile (default: production or sandbox)")
	cmd.PersistentFlags().StringVarP(&a.flags.Output, "output", "o", "json", "Output format: json or yaml")

	cmd.AddCommand(
		newAccountCmd(),
		newGetCmd(),
		newCallCmd(),
		newSignCmd(),
		newAuthCmd(),
		newMessageCmd(),
	)

	return cmd
}

// Execute runs the command tree with the given context.
func Execute(ctx context.Context, opts Options) error {
	return NewRootCmd(opts).ExecuteContext(ctx)
}

func (a *app) profile() string {
	if a.flags.Profile != "" {
		return a.flags.Profile
	}
	if a.flags.Sandbox {
		return "sandbox"
	}
	// Without app keys the environment still decides the profile.
	if cfg, err := a.Config(); err == nil && cfg.Sandbox {
		return "sandbox"
	}
	return "production"
}

// Config loads the configuration once and applies flag overrides.
func (a *app) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.opts.LoadConfig()
	if err != nil {
		return nil, err
	}
	if a.flags.Sandbox {
		cfg.Sandbox = true
	}
	if a.flags.JSON {
		cfg.UseJSON = true
	}
	a.cfg = cfg
	return cfg, nil
}

// Client builds the API client. When the configuration carries no access
// token the stored token of the active profile is used.
func (a *app) Client() (mkm.API, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}

	client, err := a.opts.NewClient(cfg, a.opts.Logger)
	if err != nil {
		return nil, err
	}

	if cfg.Credentials.AccessToken == "" {
		token, err := a.store.Load(a.profile())
		switch {
		case err == nil:
			client.SwitchUser(token.AccessToken, token.AccessTokenSecret)
		case errors.Is(err, credstore.ErrNotFound):
			a.opts.Logger.Debug("No stored token, only public endpoints will work", zap.String("profile", a.profile()))
		default:
			return nil, fmt.Errorf("failed to load stored token: %w", err)
		}
	}

	a.client = client
	return client, nil
}

func (a *app) print(cmd *cobra.Command, data any) error {
	return render(cmd.OutOrStdout(), a.flags.Output, data)
}

func defaultStoreDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mkm")
}
