package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	register(newCacheCmd)
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the session cache",
	}
	cmd.PersistentFlags().StringP("session", "s", "", "Session cache database (default: in-memory)")
	cmd.PersistentFlags().String("session-id", "", "Session to use in the cache database (default: most recent)")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show session cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			st, err := c.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			return a.print(cmd, st, func(w io.Writer) {
				fmt.Fprintf(w, "session: %s\nentries: %d\nunits:   %d\ntokens:  %d\n",
					st.SessionID, st.Entries, st.Units, st.TotalTokens)
				for _, l := range st.Levels {
					fmt.Fprintf(w, "%s: %d entries, %d tokens\n", l.Level, l.Entries, l.Tokens)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Export session cache entries as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			records, err := c.Entries(cmd.Context())
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			return a.print(cmd, nonNil(records), nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every entry of the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"session_id":%q}`+"\n", c.SessionID())
			return nil
		},
	})
	return cmd
}
