package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/natserract/mkm/pkg/mkm"
)

var callMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

func newCallCmd() *cobra.Command {
	var (
		query  map[string]string
		public bool
	)

	cmd := &cobra.Command{
		Use:   "call <method> <path>",
		Short: "Signed request to any endpoint",
		Long: `Sign and send a request without a body to a path relative to the API base,
e.g. "mkm call GET products/find --query search=Black Lotus --public".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			method := strings.ToUpper(args[0])
			if !callMethods[method] {
				return fmt.Errorf("unsupported method %q", args[0])
			}

			client, err := a.Client()
			if err != nil {
				return err
			}

			resp, err := client.MakeCall(cmd.Context(), mkm.Call{
				Method: method,
				Path:   strings.TrimPrefix(args[1], "/"),
				Query:  query,
				Public: public,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, resp.Data)
		},
	}

	cmd.Flags().StringToStringVarP(&query, "query", "q", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&public, "public", false, "Sign without the user's access token")

	return cmd
}
