package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/loader"
	"github.com/rcliao/skill-loader/internal/model"
)

func init() {
	register(newInfoCmd)
}

type infoOutput struct {
	model.Unit
	Status model.Status `json:"status"`
}

func newInfoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <id>",
		Short: "Show a unit's metadata and session load status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.openIndex()
			if err != nil {
				return err
			}
			u, ok := idx.Lookup(args[0])
			if !ok {
				return unknownUnit(args[0])
			}

			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			st, err := loader.Status(cmd.Context(), c, u.ID)
			if err != nil {
				return err
			}

			return a.print(cmd, infoOutput{Unit: u, Status: st}, func(w io.Writer) {
				fmt.Fprintf(w, "id:       %s\n", u.ID)
				fmt.Fprintf(w, "category: %s\n", u.Category)
				fmt.Fprintf(w, "summary:  %s\n", u.Summary)
				fmt.Fprintf(w, "tags:     %s\n", strings.Join(u.Tags, ", "))
				fmt.Fprintf(w, "requires: %s\n", strings.Join(u.Dependencies, ", "))
				fmt.Fprintf(w, "levels:   %s\n", levelsPresent(u))
				fmt.Fprintf(w, "status:   %s\n", st)
			})
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session cache database (default: in-memory)")
	cmd.Flags().String("session-id", "", "Session to use in the cache database (default: most recent)")
	return cmd
}
