package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/cache"
	errs "github.com/matzehuels/curricula/pkg/errors"
	"github.com/matzehuels/curricula/pkg/history"
	"github.com/matzehuels/curricula/pkg/session"
)

// historyCommand groups the commands that read and edit the approved-course
// history. Edits go to a local draft until "history save" sends them.
func (c *CLI) historyCommand() *cobra.Command {
	var program string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View and edit your approved courses",
		Long: `View and edit the courses you have approved.

"add" and "remove" change a local draft; "status" shows what would change;
"save" writes the draft to the backend and "discard" drops it.`,
	}
	cmd.PersistentFlags().StringVarP(&program, "program", "p", "", "program (carrera)")
	prog := func() string { return c.program(program) }

	cmd.AddCommand(c.historyListCommand(prog))
	cmd.AddCommand(c.historyAddCommand(prog))
	cmd.AddCommand(c.historyRemoveCommand(prog))
	cmd.AddCommand(c.historyStatusCommand(prog))
	cmd.AddCommand(c.historySaveCommand(prog))
	cmd.AddCommand(c.historyDiscardCommand(prog))
	return cmd
}

func (c *CLI) historyListCommand(program func() string) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approved courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := c.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer hs.Close()

			load := hs.store.Load
			if refresh {
				load = hs.store.Reload
			}
			snap, err := load(hs.ctx, hs.sess.UserID, program())
			if err != nil {
				return err
			}
			writeHistory(cmd.OutOrStdout(), snap.Entries, snap.TotalCredits)

			if d, err := c.readDraft(hs.sess.UserID, program()); err == nil && d != nil && d.Pending() {
				printNextStep("Unsaved changes", appName+" history status")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload from the backend instead of the cache")
	return cmd
}

func (c *CLI) historyAddCommand(program func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "add CODE...",
		Short: "Add approved courses to the draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDraft(cmd.Context(), program(), func(hs *historySession, d *history.Draft) error {
				courses := hs.catalog(program())
				for _, code := range args {
					e := history.Entry{Code: code, Program: program()}
					if course, ok := courses[code]; ok {
						e.Name, e.Credits, e.Level = course.Name, course.Credits, course.Level
					}
					if err := d.Add(e); err != nil {
						if errors.Is(err, history.ErrDuplicate) {
							printWarning("%s is already in your history", code)
							continue
						}
						return err
					}
					printSuccess("Added %s", code)
				}
				return nil
			})
		},
	}
}

func (c *CLI) historyRemoveCommand(program func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CODE...",
		Short: "Remove courses from the draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDraft(cmd.Context(), program(), func(_ *historySession, d *history.Draft) error {
				for _, code := range args {
					if !d.Remove(code, program()) {
						printWarning("%s is not in your history", code)
						continue
					}
					printSuccess("Removed %s", code)
				}
				return nil
			})
		},
	}
}

func (c *CLI) historyStatusCommand(program func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show unsaved changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			d, err := c.readDraft(sess.UserID, program())
			if err != nil {
				return err
			}
			if d == nil || !d.Pending() {
				printInfo("No unsaved changes")
				return nil
			}
			writeChanges(cmd.OutOrStdout(), d.Diff())
			return nil
		},
	}
}

func (c *CLI) historySaveCommand(program func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the draft to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errs.ValidateProgram(program()); err != nil {
				return fmt.Errorf("%w (use --program)", err)
			}
			hs, err := c.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer hs.Close()

			d, err := c.readDraft(hs.sess.UserID, program())
			if err != nil {
				return err
			}
			if d == nil || !d.Pending() {
				printInfo("No unsaved changes")
				return nil
			}

			spinner := newSpinner(hs.ctx, "Saving history...")
			spinner.Start()
			res, err := history.NewSyncer(hs.client, hs.store, c.Logger).Save(hs.ctx, hs.sess.UserID, program(), d)
			spinner.Stop()
			if err != nil {
				return err
			}
			return c.reportSave(cmd.OutOrStdout(), hs.sess.UserID, program(), res)
		},
	}
}

func (c *CLI) historyDiscardCommand(program func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Drop unsaved changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			path, err := c.draftPath(sess.UserID, program())
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			printSuccess("Draft discarded")
			return nil
		},
	}
}

// reportSave prints the outcome of a save. When every write went through
// the draft file is removed; otherwise it is rewritten so only the failed
// writes stay pending.
func (c *CLI) reportSave(w io.Writer, userID, program string, res history.SaveResult) error {
	fmt.Fprintf(w, "added %d, updated %d, removed %d\n", res.Added, res.Updated, res.Removed)
	for _, f := range res.Failures {
		printWarning("%s %s: %v", f.Op, f.Entry.Code, f.Err)
	}
	if !res.CreditsSynced {
		printWarning("Credit total was not updated on your profile")
	}

	path, err := c.draftPath(userID, program)
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		if err := writeDraft(path, retryDraft(res)); err != nil {
			return err
		}
		return fmt.Errorf("%d of %d changes failed", len(res.Failures), len(res.Failures)+res.Added+res.Updated+res.Removed)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	printSuccess("History saved (%d credits)", res.Snapshot.TotalCredits)
	return nil
}

// retryDraft starts from the reloaded history and reapplies the writes that
// failed.
func retryDraft(res history.SaveResult) *history.Draft {
	d := history.NewDraft(res.Snapshot.Entries)
	for _, f := range res.Failures {
		e := f.Entry
		switch f.Op {
		case history.OpAdd:
			_ = d.Add(e)
		case history.OpUpdate:
			_ = d.SetLevel(e.Code, e.Program, e.Level)
			_ = d.SetApprovedAt(e.Code, e.Program, e.ApprovedAt)
		case history.OpRemove:
			d.Remove(e.Code, e.Program)
		}
	}
	return d
}

// =============================================================================
// Session and draft plumbing
// =============================================================================

// historySession is an authenticated backend client with a history store.
type historySession struct {
	ctx    context.Context
	sess   *session.Session
	client *backend.Client
	cache  cache.Cache
	store  *history.Store
}

func (hs *historySession) Close() error { return hs.cache.Close() }

// catalog returns the program's courses by code. Failures are ignored so
// adding a course never depends on the catalog.
func (hs *historySession) catalog(program string) map[string]backend.Course {
	courses, err := hs.client.Courses(hs.ctx, program)
	if err != nil {
		return nil
	}
	out := make(map[string]backend.Course, len(courses))
	for _, course := range courses {
		out[course.Code] = course
	}
	return out
}

func (c *CLI) openHistory(ctx context.Context) (*historySession, error) {
	sess, authCtx, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	client, cc, err := c.newClient(ctx, false)
	if err != nil {
		return nil, err
	}
	return &historySession{
		ctx:    authCtx,
		sess:   sess,
		client: client,
		cache:  cc,
		store:  history.NewStore(client, cc, nil),
	}, nil
}

// editDraft loads the draft (starting one from the saved history if none
// exists), applies fn, and writes it back.
func (c *CLI) editDraft(ctx context.Context, program string, fn func(*historySession, *history.Draft) error) error {
	if err := errs.ValidateProgram(program); err != nil {
		return fmt.Errorf("%w (use --program)", err)
	}
	hs, err := c.openHistory(ctx)
	if err != nil {
		return err
	}
	defer hs.Close()

	d, err := c.readDraft(hs.sess.UserID, program)
	if err != nil {
		return err
	}
	if d == nil {
		snap, err := hs.store.Load(hs.ctx, hs.sess.UserID, program)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		d = history.NewDraft(snap.Entries)
	}
	if err := fn(hs, d); err != nil {
		return err
	}

	path, err := c.draftPath(hs.sess.UserID, program)
	if err != nil {
		return err
	}
	return writeDraft(path, d)
}

// draftPath keys drafts by user and program. Program names are free text,
// so they are hashed.
func (c *CLI) draftPath(userID, program string) (string, error) {
	root, err := c.stateRoot()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.json", userID, cache.Hash([]byte(program))[:12])
	return filepath.Join(root, "drafts", name), nil
}

// readDraft returns the saved draft, or nil if there is none.
func (c *CLI) readDraft(userID, program string) (*history.Draft, error) {
	path, err := c.draftPath(userID, program)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d history.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("read draft %s: %w", path, err)
	}
	return &d, nil
}

func writeDraft(path string, d *history.Draft) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// =============================================================================
// Output
// =============================================================================

func writeHistory(w io.Writer, entries []history.Entry, total int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, StyleDim.Render("No approved courses."))
		return
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		level := "—"
		if e.Level > 0 {
			level = strconv.Itoa(e.Level)
		}
		rows[i] = []string{e.Code, e.Name, e.Program, strconv.Itoa(e.Credits), level}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Code", "Course", "Program", "Credits", "Term").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render("Total: ")+StyleNumber.Render(fmt.Sprintf("%d credits", total)))
}

func writeChanges(w io.Writer, ch history.Changes) {
	for _, e := range ch.Add {
		fmt.Fprintln(w, StyleSuccess.Render("+ "+e.Code)+" "+StyleDim.Render(e.Name))
	}
	for _, e := range ch.Update {
		fmt.Fprintln(w, StyleWarning.Render("~ "+e.Code)+" "+StyleDim.Render(e.Name))
	}
	for _, e := range ch.Remove {
		fmt.Fprintln(w, styleIconError.Render("- "+e.Code)+" "+StyleDim.Render(e.Name))
	}
}
