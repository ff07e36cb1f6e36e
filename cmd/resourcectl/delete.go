package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id> [id...]",
	Short: "Delete resources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	c := getClient()
	var failed int
	for _, id := range args {
		if err := c.Delete(cmd.Context(), id); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "deleted %s\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(args))
	}
	return nil
}
