package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shothook/internal/ipc"
)

func newEmitCommand(ctx *commandContext) *cobra.Command {
	var topic string
	var data string
	var user string

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Publish an event through the daemon's event hub",
		Long: "Publish a hand-built event, for example a discover or launch request,\n" +
			"so handlers can be exercised without the host web UI. --data accepts JSON or YAML.",
		Example: `  shothook emit --topic ftrack.action.discover --user jdoe \
    --data '{"selection":[{"entityId":"task-1","entityType":"task"}]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseEventData(data)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Emit(ipc.EmitRequest{
					Topic:    strings.TrimSpace(topic),
					Data:     payload,
					Username: strings.TrimSpace(user),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published event %s\n", resp.EventID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Event topic")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Event data as a JSON or YAML mapping")
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username recorded as the event source")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

// parseEventData decodes a JSON or YAML mapping. JSON is valid YAML, so one
// decoder covers both.
func parseEventData(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse --data: %w", err)
	}
	if out == nil {
		return nil, errors.New("parse --data: expected a mapping")
	}
	return out, nil
}
