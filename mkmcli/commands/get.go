package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/natserract/mkm/mkmcli/services"
)

func newGetCmd() *cobra.Command {
	var (
		public      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "GET one or more resources",
		Long: `Fetch several paths concurrently and print the responses keyed by path,
e.g. "mkm get games expansions/1469/singles --public".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			client, err := a.Client()
			if err != nil {
				return err
			}

			paths := make([]string, len(args))
			for i, arg := range args {
				paths[i] = strings.TrimPrefix(arg, "/")
			}

			svc := services.NewFetchService(client, concurrency, a.opts.Logger)
			results, _, fetchErr := svc.FetchAll(cmd.Context(), paths, public)

			out := make(map[string]any, len(results))
			for _, r := range results {
				if r.Err != nil {
					out[r.Path] = map[string]any{"error": r.Err.Error()}
					continue
				}
				out[r.Path] = r.Data
			}
			if err := a.print(cmd, out); err != nil {
				return err
			}
			return fetchErr
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "Sign without the user's access token")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 5, "Maximum parallel requests")

	return cmd
}
