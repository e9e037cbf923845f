package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSignCmd() *cobra.Command {
	var (
		query  map[string]string
		public bool
	)

	cmd := &cobra.Command{
		Use:   "sign <method> <url>",
		Short: "Print the Authorization header for a request",
		Long:  "Compute the OAuth Authorization header for an absolute URL without sending anything.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			client, err := a.Client()
			if err != nil {
				return err
			}

			header, err := client.Authorize(strings.ToUpper(args[0]), args[1], public, query)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), header)
			return err
		},
	}

	cmd.Flags().StringToStringVarP(&query, "query", "q", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&public, "public", false, "Sign without the user's access token")

	return cmd
}
