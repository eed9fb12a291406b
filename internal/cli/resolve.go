package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/directive"
	"github.com/rcliao/skill-loader/internal/model"
	"github.com/rcliao/skill-loader/internal/resolve"
)

func init() {
	register(newResolveCmd)
}

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <directive...>",
		Short: "Print the unit ids a directive resolves to",
		Long:  "Parse and resolve a directive without loading anything, e.g. resolve '@load [product:api + SEC:*]'.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResolve(cmd, args)
		},
	}
	cmd.Flags().IntP("level", "l", 0, "Disclosure level 1-3 (default: 2)")
	cmd.Flags().BoolP("extract", "x", false, "Find @load directives inside free text")
	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, args []string) error {
	extract, _ := cmd.Flags().GetBool("extract")
	ds, err := parseArgs(args, extract)
	if err != nil {
		return err
	}
	r, _, err := a.resolver()
	if err != nil {
		return err
	}
	set, err := resolveAll(r, ds, a.cfg.DisclosureLevel())
	if err != nil {
		return err
	}
	return a.print(cmd, set, func(w io.Writer) {
		for _, id := range set.IDs {
			fmt.Fprintln(w, id)
		}
	})
}

// resolveAll resolves each directive and merges the results in order.
func resolveAll(r *resolve.Resolver, ds []directive.Directive, level model.Level) (model.ResolvedSet, error) {
	sets := make([]model.ResolvedSet, 0, len(ds))
	for _, d := range ds {
		s, err := r.Resolve(d, level)
		if err != nil {
			return model.ResolvedSet{}, fmt.Errorf("resolve %s: %w", d, err)
		}
		sets = append(sets, s)
	}
	return resolve.Merge(sets...), nil
}
