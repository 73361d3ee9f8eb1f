package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/chatmem-go/internal/service"
)

var (
	sendConversation string
	sendModel        string
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send one message and print the assistant reply",
	Long: `Send a single message and print the assistant reply.

Starts a new conversation unless --conversation is given. The model is
resolved from --model, then the last model used, then the configured
default.

Examples:
  chatmem send "Explain goroutines in two sentences"
  chatmem send -c 01933e5a-... "And channels?"
  chatmem send -m gpt-4o "Draw a login form mockup as SVG"`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendConversation, "conversation", "c", "", "existing conversation ID")
	sendCmd.Flags().StringVarP(&sendModel, "model", "m", "", "model ID for this turn")
}

func runSend(cmd *cobra.Command, args []string) error {
	chat, err := getChat()
	if err != nil {
		return err
	}

	text := args[0]
	ctx := context.Background()

	var convID, title string
	reply, err := runWithSpinner("Thinking...", func() (string, error) {
		msg, conv, err := chat.SendMessage(ctx, sendConversation, text, sendModel)
		if err != nil {
			return "", err
		}
		convID, title = conv.ID, conv.Title
		return msg.Content, nil
	})
	if errors.Is(err, service.ErrRateLimited) {
		return fmt.Errorf("sending too quickly, wait a moment and retry")
	}
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if sendConversation == "" {
		fmt.Printf("%s %s\n\n", defaultTheme.hintStyle().Render("Started:"), title)
		fmt.Printf("%s %s\n\n", defaultTheme.hintStyle().Render("ID:"), convID)
	}
	fmt.Println(reply)
	return nil
}
