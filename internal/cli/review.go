package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	reviewModel  string
	reviewDryRun bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <dir> [dir...]",
	Short: "Collect source files and start a code-review conversation",
	Long: `Collect source files from the given directories and start a
code-review conversation with them.

Directories must be inside the configured allow-list (CHATMEM_REVIEW_DIRS).
Binary files, lockfiles, and build directories are skipped.

Examples:
  chatmem review ./internal
  chatmem review ./cmd ./internal --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewModel, "model", "m", "", "model ID for the review turn")
	reviewCmd.Flags().BoolVar(&reviewDryRun, "dry-run", false, "collect and list files without sending")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	report, err := getReview().Collect(ctx, args)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	fmt.Printf("Collected %d files (%d skipped):\n", len(report.Files), report.Skipped)
	for _, f := range report.Files {
		fmt.Printf("  %s\n", f)
	}

	if reviewDryRun {
		return nil
	}

	chat, err := getChat()
	if err != nil {
		return err
	}

	var convID string
	reply, err := runWithSpinner("Reviewing...", func() (string, error) {
		msg, conv, err := chat.SendMessage(ctx, "", report.Prompt, reviewModel)
		if err != nil {
			return "", err
		}
		convID = conv.ID
		return msg.Content, nil
	})
	if err != nil {
		return fmt.Errorf("review turn: %w", err)
	}

	fmt.Printf("\n%s %s\n\n", defaultTheme.hintStyle().Render("Conversation:"), convID)
	fmt.Println(reply)
	return nil
}
