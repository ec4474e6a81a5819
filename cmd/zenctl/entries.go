package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenjournal/zenjournal-backend/pkg/zenclient"
)

type listFlags struct {
	search, mood, tag, visibility string
	from, to                      string
	pinned                        bool
	page, limit                   int
}

func (f listFlags) filter(pinnedSet bool) (zenclient.ListFilter, error) {
	lf := zenclient.ListFilter{
		Search:     f.search,
		Mood:       f.mood,
		Tag:        f.tag,
		Visibility: f.visibility,
		Page:       f.page,
		Limit:      f.limit,
	}
	if pinnedSet {
		pinned := f.pinned
		lf.Pinned = &pinned
	}
	var err error
	if f.from != "" {
		if lf.From, err = time.Parse(zenclient.DateLayout, f.from); err != nil {
			return lf, fmt.Errorf("--from must be YYYY-MM-DD")
		}
	}
	if f.to != "" {
		if lf.To, err = time.Parse(zenclient.DateLayout, f.to); err != nil {
			return lf, fmt.Errorf("--to must be YYYY-MM-DD")
		}
	}
	return lf, nil
}

func newEntriesCmd() *cobra.Command {
	entCmd := &cobra.Command{Use: "entries", Short: "Journal entry operations"}

	// list
	var lf listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := lf.filter(cmd.Flags().Changed("pinned"))
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			list, err := c.ListEntries(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	listCmd.Flags().StringVarP(&lf.search, "search", "s", "", "Match title or content")
	listCmd.Flags().StringVarP(&lf.mood, "mood", "m", "", "Filter by mood")
	listCmd.Flags().StringVarP(&lf.tag, "tag", "t", "", "Filter by tag")
	listCmd.Flags().StringVar(&lf.visibility, "visibility", "", "Filter by visibility")
	listCmd.Flags().BoolVar(&lf.pinned, "pinned", false, "Only pinned (true) or unpinned (false) entries")
	listCmd.Flags().StringVar(&lf.from, "from", "", "Created on or after YYYY-MM-DD")
	listCmd.Flags().StringVar(&lf.to, "to", "", "Created on or before YYYY-MM-DD")
	listCmd.Flags().IntVarP(&lf.page, "page", "p", 0, "Page number")
	listCmd.Flags().IntVarP(&lf.limit, "limit", "l", 0, "Page size")
	entCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get ENTRY_ID",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			e, err := c.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e)
		},
	}
	entCmd.AddCommand(getCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete ENTRY_ID",
		Short: "Delete one of your entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	entCmd.AddCommand(deleteCmd)

	return entCmd
}
