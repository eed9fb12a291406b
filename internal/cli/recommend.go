package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/discovery"
)

func init() {
	register(newRecommendCmd)
}

func newRecommendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <context...>",
		Short: "Recommend units for a project description",
		Long:  "Score every unit against free text describing the project and print the best matches.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetInt("top")
			idx, err := a.openIndex()
			if err != nil {
				return err
			}
			results := discovery.New(idx).Recommend(strings.Join(args, " "), top)
			return a.print(cmd, nonNil(results), func(w io.Writer) {
				printResults(w, results)
			})
		},
	}
	cmd.Flags().IntP("top", "n", 5, "Max recommendations, 0 for all")
	return cmd
}
