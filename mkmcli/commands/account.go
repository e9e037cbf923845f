package commands

import (
	"github.com/spf13/cobra"

	"github.com/natserract/mkm/pkg/mkm"
)

func newAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			client, err := a.Client()
			if err != nil {
				return err
			}

			resp, err := client.MakeCall(cmd.Context(), mkm.Call{Path: "account"})
			if err != nil {
				return err
			}
			return a.print(cmd, resp.Data)
		},
	}
}
