package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/nholik/progress-sentinel/internal/notify"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/spf13/cobra"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var (
		userID      string
		itemName    string
		today       string
		cumulative  string
		lastUpdated string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one progress notification without a change event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(itemName) == "" {
				return fmt.Errorf("--user and --item are required")
			}

			after := map[string]any{}
			if cmd.Flags().Changed("today") {
				after[progress.FieldTodayProgress] = today
			}
			if cmd.Flags().Changed("cumulative") {
				after[progress.FieldCumulativeProgress] = cumulative
			}
			if lastUpdated != "" {
				ts, err := time.Parse(time.RFC3339, lastUpdated)
				if err != nil {
					return fmt.Errorf("invalid --last-updated: %w", err)
				}
				after[progress.FieldLastUpdated] = ts
			}

			dispatcher := newDispatcher(cfg, ctx.logger(), nil, nil)
			result := dispatcher.Dispatch(cmd.Context(), progress.Key{UserID: userID, ItemName: itemName}, after)

			out := cmd.OutOrStdout()
			switch result.Outcome {
			case notify.OutcomeSent:
				fmt.Fprintf(out, "Notification sent (status %d)\n", result.StatusCode)
				return nil
			default:
				fmt.Fprintf(out, "Notification not sent: %s\n", result.Outcome)
				return result.Err
			}
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id of the progress document")
	cmd.Flags().StringVar(&itemName, "item", "", "Item name of the progress document")
	cmd.Flags().StringVar(&today, "today", "", "Today's progress")
	cmd.Flags().StringVar(&cumulative, "cumulative", "", "Cumulative progress")
	cmd.Flags().StringVar(&lastUpdated, "last-updated", "", "Last update time (RFC3339); N/A when omitted")

	return cmd
}
