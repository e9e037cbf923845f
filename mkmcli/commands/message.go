package commands

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/natserract/mkm/pkg/mkm"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Read and send messages",
	}
	cmd.AddCommand(newMessageListCmd(), newMessageSendCmd())
	return cmd
}

func newMessageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [idOtherUser]",
		Short: "List message threads, or one thread",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			path := "account/messages"
			if len(args) == 1 {
				id, err := userID(args[0])
				if err != nil {
					return err
				}
				path += "/" + id
			}

			client, err := a.Client()
			if err != nil {
				return err
			}
			resp, err := client.MakeCall(cmd.Context(), mkm.Call{Path: path})
			if err != nil {
				return err
			}
			return a.print(cmd, resp.Data)
		},
	}
}

func newMessageSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <idOtherUser> <message>...",
		Short: "Send a message to another user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			id, err := userID(args[0])
			if err != nil {
				return err
			}

			client, err := a.Client()
			if err != nil {
				return err
			}
			resp, err := client.MakeCall(cmd.Context(), mkm.Call{
				Method: http.MethodPost,
				Path:   "account/messages/" + id,
				Body:   mkm.Message{Message: strings.Join(args[1:], " ")},
			})
			if err != nil {
				return err
			}
			return a.print(cmd, resp.Data)
		},
	}
}

func userID(arg string) (string, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid user id %q", arg)
	}
	return strconv.Itoa(id), nil
}
