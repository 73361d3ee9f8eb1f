package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations",
	Long: `List stored conversations, newest first.

Examples:
  chatmem list
  chatmem list -n 5`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "max conversations to show")
}

func runList(cmd *cobra.Command, args []string) error {
	convs, err := conversations.List(context.Background())
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if len(convs) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	if listLimit > 0 && len(convs) > listLimit {
		convs = convs[:listLimit]
	}

	for _, conv := range convs {
		summary := ""
		if conv.Summary != "" {
			summary = " [summarized]"
		}
		fmt.Printf("%s  %s (%d messages, %s)%s\n",
			defaultTheme.hintStyle().Render(conv.ID),
			conv.Title,
			len(conv.Messages),
			conv.LastModified.Local().Format("2006-01-02 15:04"),
			defaultTheme.hintStyle().Render(summary))
	}
	return nil
}
