package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

var (
	forkAt          string
	forkFrom        bool
	forkVisibleOnly bool
)

var forkCmd = &cobra.Command{
	Use:   "fork <conversation-id>",
	Short: "Duplicate a conversation into an independent copy",
	Long: `Duplicate a conversation into an independent copy.

By default the whole history is copied. With --at the copy stops at the
given message (inclusive); adding --from copies from that message onward
instead.

Examples:
  chatmem fork 01933e5a-...
  chatmem fork 01933e5a-... --at 01933e77-...
  chatmem fork 01933e5a-... --at 01933e77-... --from`,
	Args: cobra.ExactArgs(1),
	RunE: runFork,
}

func init() {
	forkCmd.Flags().StringVar(&forkAt, "at", "", "anchor message ID")
	forkCmd.Flags().BoolVar(&forkFrom, "from", false, "copy from the anchor onward")
	forkCmd.Flags().BoolVar(&forkVisibleOnly, "visible-only", false, "exclude hidden system context messages")
}

func runFork(cmd *cobra.Command, args []string) error {
	fork, err := forks.Fork(context.Background(), args[0], models.ForkOptions{
		MessageID:           forkAt,
		StartFromMessage:    forkFrom,
		VisibleMessagesOnly: forkVisibleOnly,
		IncludeAllBranches:  true,
	})
	if err != nil {
		return fmt.Errorf("fork: %w", err)
	}

	fmt.Printf("%s %s\n", defaultTheme.successStyle().Render("Forked:"), fork.Title)
	fmt.Printf("%s %s (%d messages)\n",
		defaultTheme.hintStyle().Render("ID:"), fork.ID, len(fork.Messages))
	return nil
}
