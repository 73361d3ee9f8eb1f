package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/chatmem-go/internal/service"
)

var (
	chatConversation string
	chatModel        string
)

var chatCmd = &cobra.Command{
	Use:   "chat [initial message]",
	Short: "Interactive chat session",
	Long: `Start an interactive chat session.

An initial message argument is queued and sent as the first turn of a new
conversation. Use --conversation to continue an existing one.

Inside the session:
  /quit   leave (the conversation stays stored)
  /stats  print turn and model timings for this session

Examples:
  chatmem chat
  chatmem chat "Help me debug a deadlock"
  chatmem chat -c 01933e5a-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "", "continue an existing conversation")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model ID for this session")
}

func runChat(cmd *cobra.Command, args []string) error {
	chat, err := getChat()
	if err != nil {
		return err
	}

	ctx := context.Background()
	convID := chatConversation

	// A command-line message is the quick-start path: queued and consumed
	// by the first turn.
	if len(args) == 1 {
		chat.QueuePrompt(service.PendingPrompt{Text: args[0], Model: chatModel})
		convID, err = runTurn(ctx, chat, convID, args[0])
		if err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print(defaultTheme.statusStyle().Render("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			if convID != "" {
				fmt.Println(defaultTheme.hintStyle().Render("Conversation stored as " + convID))
			}
			return nil
		case "/stats":
			printStats()
			continue
		}

		convID, err = runTurn(ctx, chat, convID, line)
		if err != nil {
			return err
		}
	}

	return scanner.Err()
}

// runTurn sends one message and prints the reply. Rate limiting is shown as
// a hint instead of ending the session.
func runTurn(ctx context.Context, chat *service.ChatService, convID, text string) (string, error) {
	newID := convID
	reply, err := runWithSpinner("Thinking...", func() (string, error) {
		msg, conv, err := chat.SendMessage(ctx, convID, text, chatModel)
		if err != nil {
			return "", err
		}
		newID = conv.ID
		return msg.Content, nil
	})
	if errors.Is(err, service.ErrRateLimited) {
		fmt.Println(defaultTheme.hintStyle().Render("Too fast, wait a moment and resend."))
		return convID, nil
	}
	if err != nil {
		return convID, fmt.Errorf("turn failed: %w", err)
	}

	fmt.Printf("\n%s\n\n", reply)
	return newID, nil
}

func printStats() {
	snap := collector.Snapshot()
	if snap.Turn == nil {
		fmt.Println(defaultTheme.hintStyle().Render("No turns yet."))
		return
	}
	fmt.Printf("Turns: %d (avg %.0fms, max %dms)\n",
		snap.Turn.Count, snap.Turn.AvgTimeMs, snap.Turn.MaxTimeMs)
	if snap.LLMInvoke != nil {
		fmt.Printf("Model calls: %d (avg %.0fms)\n", snap.LLMInvoke.Count, snap.LLMInvoke.AvgTimeMs)
		if snap.LLMInvoke.AvgInputTokens != nil {
			fmt.Printf("Tokens: ~%.0f in / ~%.0f out per call\n",
				*snap.LLMInvoke.AvgInputTokens, *snap.LLMInvoke.AvgOutputTokens)
		}
	}
	if snap.LLMSummarize != nil {
		fmt.Printf("Summaries: %d\n", snap.LLMSummarize.Count)
	}
}
