package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation permanently",
	Long: `Delete a conversation permanently.

Requires confirmation unless --force is used.

Examples:
  chatmem delete 01933e5a-...
  chatmem delete 01933e5a-... --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	conv, err := conversations.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("conversation not found: %s", id)
	}

	if !deleteForce {
		fmt.Printf("About to delete: %s (%d messages)\n", conv.Title, len(conv.Messages))
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := conversations.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	fmt.Printf("Deleted: %s\n", conv.Title)
	return nil
}
