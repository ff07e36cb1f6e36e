package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a resource",
	Long: `Download a resource by id.

Without --output the file is saved in the current directory under the
name the server reports. Use "-o -" to write to stdout.

Examples:
  resourcectl download 3f6c...
  resourcectl download 3f6c... -o ./copy.pdf
  resourcectl download 3f6c... -o - | less`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output path, or - for stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	id := args[0]
	c := getClient()

	if downloadOutput == "-" {
		_, err := c.Download(cmd.Context(), id, os.Stdout)
		return err
	}

	tmp, err := os.CreateTemp(".", ".resourcectl-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	info, err := c.Download(cmd.Context(), id, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	dest := downloadOutput
	if dest == "" {
		dest = filepath.Base(info.FileName)
		if dest == "." || dest == string(filepath.Separator) || dest == "" {
			dest = id
		}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %s (%d bytes)\n", dest, info.Size)
	return nil
}
