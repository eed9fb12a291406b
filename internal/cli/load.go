package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/skill-loader/internal/compose"
	"github.com/rcliao/skill-loader/internal/loader"
)

func init() {
	register(newLoadCmd)
}

type loadOutput struct {
	Directive string `json:"directive"`
	*loader.Result
	Related []compose.Related `json:"related,omitempty"`
	Missing []compose.Related `json:"missing,omitempty"`
}

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <directive...>",
		Short: "Resolve a directive and load its units",
		Long: "Resolve a directive, check the units compose, then load each unit up to the " +
			"requested level within the token budget. Levels already loaded in the session are free.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd, args)
		},
	}
	cmd.Flags().IntP("level", "l", 0, "Disclosure level 1-3 (default: 2)")
	cmd.Flags().IntP("budget", "b", 0, "Max tokens to load, 0 for unlimited")
	cmd.Flags().StringP("session", "s", "", "Session cache database (default: in-memory)")
	cmd.Flags().String("session-id", "", "Session to use in the cache database (default: most recent)")
	cmd.Flags().Int("concurrency", 0, "Parallel file reads (default: 4)")
	cmd.Flags().BoolP("extract", "x", false, "Find @load directives inside free text")
	return cmd
}

func (a *app) runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	extract, _ := cmd.Flags().GetBool("extract")
	ds, err := parseArgs(args, extract)
	if err != nil {
		return err
	}
	r, idx, err := a.resolver()
	if err != nil {
		return err
	}
	set, err := resolveAll(r, ds, a.cfg.DisclosureLevel())
	if err != nil {
		return err
	}
	report, err := compose.Validate(set, idx)
	if err != nil {
		return err
	}

	c, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	l := &loader.Loader{Index: idx, Logger: a.log, Concurrency: a.cfg.Concurrency}
	res, loadErr := l.Load(ctx, set, set.Level, c, a.cfg.Budget)
	var budgetErr *loader.BudgetExceeded
	if loadErr != nil && !errors.As(loadErr, &budgetErr) {
		return loadErr
	}

	texts := make([]string, len(ds))
	for i, d := range ds {
		texts[i] = d.String()
	}
	out := loadOutput{Directive: strings.Join(texts, " "), Result: res, Related: report.Related, Missing: report.Missing}
	if err := a.print(cmd, out, func(w io.Writer) {
		fmt.Fprintln(w, res.Content())
	}); err != nil {
		return err
	}
	return loadErr
}
