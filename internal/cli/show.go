package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

var showHidden bool

var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Print a conversation's message history",
	Long: `Print a conversation's message history.

Synthesized system context messages are hidden by default; --hidden
includes them.

Examples:
  chatmem show 01933e5a-...
  chatmem show 01933e5a-... --hidden`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden system context messages")
}

func runShow(cmd *cobra.Command, args []string) error {
	conv, err := conversations.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}

	fmt.Printf("%s\n", conv.Title)
	if conv.Summary != "" {
		fmt.Printf("%s %s\n", defaultTheme.hintStyle().Render("summary:"), conv.Summary)
	}
	if conv.Generated != nil {
		fmt.Printf("%s %d svg, %d code\n",
			defaultTheme.hintStyle().Render("artifacts:"),
			len(conv.Generated.SVG), len(conv.Generated.Code))
	}
	fmt.Println()

	for _, msg := range conv.Messages {
		if msg.IsSystemInstruction() && !showHidden {
			continue
		}
		prefix := rolePrefix(msg)
		fmt.Printf("%s %s\n\n", prefix, msg.Content)
	}
	return nil
}

func rolePrefix(msg models.Message) string {
	switch {
	case msg.Status == models.StatusError:
		return defaultTheme.errorStyle().Render("assistant(error)>")
	case msg.Role == models.RoleUser:
		return defaultTheme.statusStyle().Render("user>")
	case msg.Role == models.RoleAssistant:
		return defaultTheme.successStyle().Render("assistant>")
	default:
		return defaultTheme.hintStyle().Render("system>")
	}
}
