package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shothook/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test transfer notification mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient := strings.TrimSpace(to)
			if recipient == "" {
				return errors.New("--to is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification(recipient)
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	return cmd
}
