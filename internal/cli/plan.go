package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/history"
)

// planOpts holds the flags of the plan command.
type planOpts struct {
	program     string
	maxCredits  int
	history     []string
	fromHistory bool
	noCache     bool
}

// planCommand asks the planner which courses to take next.
func (c *CLI) planCommand() *cobra.Command {
	var opts planOpts

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Recommend courses for the next term",
		Long: `Ask the planner for the best set of courses to take next, given the courses
you have already approved and a credit cap.

Approved courses come from --history, or from your saved history with
--from-history (requires login).`,
		Example: `  curricula plan -p "Ingenieria de Software" --history MA101,FI101
  curricula plan --from-history --max-credits 18`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.program = c.program(opts.program)
			if opts.maxCredits == 0 {
				opts.maxCredits = c.config.Planner.MaxCredits
			}
			return c.runPlan(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.program, "program", "p", "", "program (carrera) to plan for")
	cmd.Flags().IntVar(&opts.maxCredits, "max-credits", 0, "credit cap for the term (default from config)")
	cmd.Flags().StringSliceVar(&opts.history, "history", nil, "approved course codes")
	cmd.Flags().BoolVar(&opts.fromHistory, "from-history", false, "use your saved history as approved courses")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the response cache")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, w io.Writer, opts planOpts) error {
	client, cc, err := c.newClient(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	codes := opts.history
	if opts.fromHistory {
		sess, authCtx, err := c.requireSession(ctx)
		if err != nil {
			return err
		}
		store := history.NewStore(client, cc, nil)
		snap, err := store.Load(authCtx, sess.UserID, opts.program)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		for _, e := range snap.Entries {
			codes = append(codes, e.Code)
		}
	}

	req := backend.PlanRequest{History: codes, MaxCredits: opts.maxCredits}
	if opts.program != "" {
		req.Program = &opts.program
	}

	spinner := newSpinner(ctx, "Planning next term...")
	spinner.Start()
	resp, err := client.Plan(ctx, req.WithDefaults())
	spinner.Stop()
	if err != nil {
		return err
	}

	writePlan(w, resp, req.WithDefaults().MaxCredits)
	return nil
}

// writePlan prints the recommended courses as a table followed by the
// credit total.
func writePlan(w io.Writer, resp backend.PlanResponse, maxCredits int) {
	if len(resp.Recommended) == 0 {
		fmt.Fprintln(w, StyleWarning.Render("No courses to recommend."))
		if n := len(resp.Available); n > 0 {
			fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d courses are available but none fit the %d-credit cap.", n, maxCredits)))
		}
		return
	}

	rows := make([][]string, len(resp.Recommended))
	for i, course := range resp.Recommended {
		level := "—"
		if course.Level > 0 {
			level = strconv.Itoa(course.Level)
		}
		rows[i] = []string{course.Code, course.Name, strconv.Itoa(course.Credits), level, formatImpact(course.Impact)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Code", "Course", "Credits", "Level", "Impact").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col >= 2:
				return lipgloss.NewStyle().Foreground(colorGray).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
	total := fmt.Sprintf("%d of %d credits", resp.Credits(), maxCredits)
	fmt.Fprintln(w, StyleDim.Render("Total: ")+StyleNumber.Render(total))
	if extra := len(resp.Available) - len(resp.Recommended); extra > 0 {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d more courses are available.", extra)))
	}
}

func formatImpact(v float64) string {
	if v == 0 {
		return "—"
	}
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 2, 64), "0"), ".")
}
