package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/natserract/mkm/pkg/credstore"
	"github.com/natserract/mkm/pkg/mkm"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored access tokens",
		Long:  "Store, inspect and remove the access token pair used for user endpoints. Application keys always come from the environment or the config file.",
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		token    string
		secret   string
		username string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token pair for the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if token == "" || secret == "" {
				return fmt.Errorf("--token and --secret are required")
			}

			if verify {
				client, err := a.Client()
				if err != nil {
					return err
				}
				client.SwitchUser(token, secret)
				if _, err := client.MakeCall(cmd.Context(), mkm.Call{Path: "account"}); err != nil {
					return fmt.Errorf("token rejected: %w", err)
				}
			}

			ut := &credstore.UserToken{AccessToken: token, AccessTokenSecret: secret, Username: username}
			if err := a.store.Save(a.profile(), ut); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored token for profile %s in %s\n", a.profile(), a.store.Location())
			return err
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().StringVar(&secret, "secret", "", "Access token secret")
	cmd.Flags().StringVar(&username, "username", "", "Username to remember with the token")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the account endpoint before storing it")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token of the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			err := a.store.Delete(a.profile())
			if errors.Is(err, credstore.ErrNotFound) {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "No token stored for profile %s\n", a.profile())
				return err
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed token for profile %s\n", a.profile())
			return err
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credentials would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			status := map[string]any{
				"profile": a.profile(),
				"store":   a.store.Location(),
			}

			cfg, err := a.Config()
			if err != nil {
				status["app_keys"] = err.Error()
			} else {
				status["app_keys"] = "configured"
				status["sandbox"] = cfg.Sandbox
				status["use_json"] = cfg.UseJSON
				if cfg.Credentials.AccessToken != "" {
					status["user"] = "from environment"
				}
			}

			if _, ok := status["user"]; !ok {
				token, err := a.store.Load(a.profile())
				switch {
				case err == nil:
					status["user"] = "stored"
					if token.Username != "" {
						status["username"] = token.Username
					}
				case errors.Is(err, credstore.ErrNotFound):
					status["user"] = "none (public endpoints only)"
				default:
					return err
				}
			}

			return a.print(cmd, status)
		},
	}
}
