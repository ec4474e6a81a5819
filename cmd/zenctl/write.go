package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenjournal/zenjournal-backend/pkg/editor"
)

// stderrUI reports editor navigation and notifications on the terminal.
type stderrUI struct {
	w io.Writer
}

func (u stderrUI) Replace(path string) { fmt.Fprintf(u.w, "saved draft at %s\n", path) }
func (u stderrUI) Push(path string)    {}

func (u stderrUI) Notify(n editor.Notification) {
	if n.Err != nil {
		fmt.Fprintf(u.w, "%s: %v\n", n.Message, n.Err)
		return
	}
	fmt.Fprintln(u.w, n.Message)
}

type writeOptions struct {
	title, mood, visibility string
	tags                    []string
	pinned                  bool
	debounce                time.Duration
}

// applyDraft copies the flags that were set onto the session.
func (o writeOptions) applyDraft(cmd *cobra.Command, s *editor.Session) error {
	flags := cmd.Flags()
	steps := []struct {
		name string
		set  func() error
	}{
		{"title", func() error { return s.SetTitle(o.title) }},
		{"mood", func() error { return s.SetMood(o.mood) }},
		{"visibility", func() error { return s.SetVisibility(o.visibility) }},
		{"tags", func() error { return s.SetTags(o.tags) }},
		{"pinned", func() error { return s.SetPinned(o.pinned) }},
	}
	for _, st := range steps {
		if !flags.Changed(st.name) {
			continue
		}
		if err := st.set(); err != nil {
			return err
		}
	}
	return nil
}

func defaultTitle(now time.Time) string {
	return now.Format("Monday, January 2, 2006")
}

// pipeLines appends each line from r to the session's content.
func pipeLines(ctx context.Context, r io.Reader, s *editor.Session) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.AppendContent(scanner.Text() + "\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func newWriteCmd() *cobra.Command {
	var opts writeOptions
	cmd := &cobra.Command{
		Use:   "write [ENTRY_ID]",
		Short: "Write an entry from stdin, autosaving as lines arrive",
		Long: "Reads markdown from stdin line by line into the entry. Without ENTRY_ID a new " +
			"entry is created on the first autosave. The entry is saved once more at end of input.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient()
			if err != nil {
				return err
			}
			me, err := c.Me(ctx)
			if err != nil {
				return err
			}

			ui := stderrUI{w: cmd.ErrOrStderr()}
			cfg := editor.Config{API: c, Navigator: ui, Notifier: ui, ViewerID: me.ID, Debounce: opts.debounce}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			s := editor.Open(ctx, cfg, id)
			defer s.Close()
			if s.State() != editor.StateReady {
				return s.Err()
			}

			if id == "" && !cmd.Flags().Changed("title") {
				// new entries need a title before the first autosave can create them
				if err := s.SetTitle(defaultTitle(time.Now())); err != nil {
					return err
				}
			}
			if err := opts.applyDraft(cmd, s); err != nil {
				return err
			}
			if err := pipeLines(ctx, cmd.InOrStdin(), s); err != nil {
				return err
			}
			if err := s.Save(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.ID())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "Entry title")
	cmd.Flags().StringVarP(&opts.mood, "mood", "m", "", "Mood: happy, sad, neutral, anxious or excited")
	cmd.Flags().StringVar(&opts.visibility, "visibility", "", "private, draft or public")
	cmd.Flags().StringSliceVarP(&opts.tags, "tags", "t", nil, "Comma-separated tags")
	cmd.Flags().BoolVar(&opts.pinned, "pinned", false, "Pin the entry")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", editor.DefaultDebounce, "Autosave delay after the last line")
	return cmd
}
