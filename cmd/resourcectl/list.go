package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"resourcehub/internal/client"
)

var (
	listQuery  string
	listType   string
	listTag    string
	listLimit  int
	listOffset int
)

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List resources, newest first",
	Long: `List resources visible to the signed-in user.

Types: image, document, video, audio, other.

Examples:
  resourcectl list
  resourcectl list report
  resourcectl list --type document --tag finance --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags in use",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "case-insensitive name search")
	listCmd.Flags().StringVar(&listType, "type", "", "filter by category")
	listCmd.Flags().StringVar(&listTag, "tag", "", "filter by tag")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "max results (0: all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "results to skip")
}

func runList(cmd *cobra.Command, args []string) error {
	query := listQuery
	if len(args) > 0 {
		query = args[0]
	}

	res, err := getClient().List(cmd.Context(), client.ListOptions{
		Query:  query,
		Type:   listType,
		Tag:    listTag,
		Limit:  listLimit,
		Offset: listOffset,
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(os.Stdout, res)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSIZE\tUPLOADED\tTAGS")
	for _, r := range res.Resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Name, r.Category, r.Size, r.UploadDate.Format("2006-01-02 15:04"), strings.Join(r.Tags, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d of %d\n", len(res.Resources), res.Total)
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	tags, err := getClient().Tags(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(os.Stdout, tags)
	}
	for _, t := range tags {
		fmt.Fprintln(os.Stdout, t)
	}
	return nil
}
