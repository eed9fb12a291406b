package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/model"
)

func init() {
	register(newListCmd)
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed units",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			idsOnly, _ := cmd.Flags().GetBool("ids-only")

			idx, err := a.openIndex()
			if err != nil {
				return err
			}
			units := idx.All()
			if category != "" {
				units = idx.FilterByCategory(category)
			}
			sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

			if idsOnly {
				for _, u := range units {
					fmt.Fprintln(cmd.OutOrStdout(), u.ID)
				}
				return nil
			}
			return a.print(cmd, nonNil(units), func(w io.Writer) {
				for _, u := range units {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Category, levelsPresent(u))
				}
			})
		},
	}
	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().Bool("ids-only", false, "Only output unit ids")
	return cmd
}

// levelsPresent renders which levels a unit has content for, e.g. "1 2 -".
func levelsPresent(u model.Unit) string {
	out := make([]byte, 0, 5)
	for i, l := range model.Levels {
		if i > 0 {
			out = append(out, ' ')
		}
		if u.Source(l).Absent() {
			out = append(out, '-')
		} else {
			out = append(out, byte('0'+l))
		}
	}
	return string(out)
}
