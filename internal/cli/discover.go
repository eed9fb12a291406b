package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/discovery"
)

func init() {
	register(newDiscoverCmd)
}

func newDiscoverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [keyword...]",
		Short: "Search units by keyword and category",
		Long:  "Search unit ids, tags and summaries. With no keyword, list the units of --category, or all units.",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			idx, err := a.openIndex()
			if err != nil {
				return err
			}
			results := discovery.New(idx).Discover(discovery.Query{
				Keyword:  strings.Join(args, " "),
				Category: category,
			})
			return a.print(cmd, nonNil(results), func(w io.Writer) {
				printResults(w, results)
			})
		},
	}
	cmd.Flags().StringP("category", "c", "", "Filter by category")
	return cmd
}

func printResults(w io.Writer, results []discovery.Result) {
	for _, r := range results {
		if r.Score > 0 {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Category, r.Score, r.Summary)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Category, r.Summary)
	}
}

// nonNil keeps empty result lists printing as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
