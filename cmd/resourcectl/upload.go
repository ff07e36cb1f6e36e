package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resourcehub/internal/client"
)

var (
	uploadTags     []string
	uploadMimeType string
	uploadName     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file> [file...]",
	Short: "Upload files",
	Long: `Upload one or more local files.

Examples:
  resourcectl upload report.pdf
  resourcectl upload --tag finance --tag q3 report.pdf summary.xlsx
  resourcectl upload --name notes.txt --type text/plain ./draft`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tag", nil, "tag to attach (repeatable or comma separated)")
	uploadCmd.Flags().StringVar(&uploadMimeType, "type", "", "MIME type (default: guessed from the file name)")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "stored name (single file only, default: base name)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadName != "" && len(args) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	c := getClient()
	uploaded := make([]*client.Resource, 0, len(args))
	for _, path := range args {
		name := uploadName
		if name == "" {
			name = filepath.Base(path)
		}
		res, err := uploadFile(cmd, c, path, name)
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		uploaded = append(uploaded, res)
		if !jsonOutput {
			fmt.Fprintf(os.Stdout, "%s\t%s\t%d bytes\t%s\n", res.ID, res.Name, res.Size, strings.Join(res.Tags, ","))
		}
	}

	if jsonOutput {
		return printJSON(os.Stdout, uploaded)
	}
	return nil
}

func uploadFile(cmd *cobra.Command, c *client.Client, path, name string) (*client.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return c.Upload(cmd.Context(), name, f, uploadMimeType, uploadTags)
}
