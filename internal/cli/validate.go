package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/compose"
	"github.com/rcliao/skill-loader/internal/loader"
	"github.com/rcliao/skill-loader/internal/model"
)

func init() {
	register(newValidateCmd)
}

type validateOutput struct {
	OK       bool              `json:"ok"`
	Units    int               `json:"units"`
	Products []string          `json:"products"`
	Related  []compose.Related `json:"related,omitempty"`
	Missing  []compose.Related `json:"missing,omitempty"`
	Warnings []loader.Warning  `json:"warnings,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [id]",
		Short: "Check the content root, the matrix and unit composition",
		Long: "Build the index and load the matrix, reporting every malformed unit, then check " +
			"dependency cycles across all units, or only from the given unit. Missing level sections " +
			"and levels over the recommended token limits are reported as warnings.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.openIndex()
			if err != nil {
				return err
			}
			m, err := a.openMatrix()
			if err != nil {
				return err
			}

			var ids []string
			if len(args) == 1 {
				if _, ok := idx.Lookup(args[0]); !ok {
					return unknownUnit(args[0])
				}
				ids = []string{args[0]}
			} else {
				for _, u := range idx.All() {
					ids = append(ids, u.ID)
				}
			}
			report, err := compose.Validate(model.ResolvedSet{IDs: ids, Level: model.Level1}, idx)
			if err != nil {
				return err
			}

			out := validateOutput{OK: true, Units: idx.Len(), Products: []string{}, Related: report.Related, Missing: report.Missing}
			l := &loader.Loader{Index: idx, Logger: a.log}
			for _, id := range ids {
				u, _ := idx.Lookup(id)
				ws, err := l.Check(u)
				if err != nil {
					return err
				}
				out.Warnings = append(out.Warnings, ws...)
			}
			if m != nil {
				out.Products = m.Products()
			}
			return a.print(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "ok: %d units, %d products\n", out.Units, len(out.Products))
				for _, r := range out.Related {
					fmt.Fprintf(w, "related: %s -> %s\n", r.From, r.To)
				}
				for _, r := range out.Missing {
					fmt.Fprintf(w, "missing: %s -> %s\n", r.From, r.To)
				}
				for _, warn := range out.Warnings {
					fmt.Fprintf(w, "warning: %s\n", warn)
				}
			})
		},
	}
}
