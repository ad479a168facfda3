package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/graph"
	"github.com/matzehuels/curricula/pkg/loader"
	"github.com/matzehuels/curricula/pkg/overlay"
	"github.com/matzehuels/curricula/pkg/render/nodelink"
)

const (
	formatSummary = "summary"
	formatJSON    = "json"
	formatDOT     = "dot"
	formatSVG     = "svg"
)

var graphFormats = []string{formatSummary, formatJSON, formatDOT, formatSVG}

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	program    string
	format     string
	output     string
	selection  string
	edgeLabels bool
	noCache    bool
}

// graphCommand creates the graph command, which fetches a curriculum and
// writes it as a summary, a layout JSON document, DOT, or SVG.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Fetch, normalize, and lay out a curriculum map",
		Long: `Fetch the curriculum graph from the backend, key every course by code and
program, and pin each course to its level column.

Formats:
  summary  counts per level and any repairs made while normalizing (default)
  json     positioned layout for other renderers
  dot      Graphviz source with pinned positions
  svg      rendered map`,
		Example: `  curricula graph --program "Ingenieria de Software"
  curricula graph -f svg -o malla.svg --select MA101`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(graphFormats, opts.format) {
				return fmt.Errorf("unknown format %q (valid: %s)", opts.format, strings.Join(graphFormats, ", "))
			}
			opts.program = c.program(opts.program)
			return c.runGraph(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.program, "program", "p", "", "program (carrera) to show; default all")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatSummary, "output format: "+strings.Join(graphFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.selection, "select", "", "course code or code|program to highlight")
	cmd.Flags().BoolVar(&opts.edgeLabels, "edge-labels", false, "print credit requirements on edges (dot, svg)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the response cache")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, stdout io.Writer, opts graphOpts) error {
	client, cc, err := c.newClient(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	prog := newProgress(c.Logger)
	snap, err := c.newLoader(client).Load(ctx, opts.program)
	if err != nil {
		return err
	}
	if snap.Err != nil {
		return fmt.Errorf("fetch graph: %w", snap.Err)
	}
	prog.done(fmt.Sprintf("Loaded %d courses", snap.Dataset.NodeCount()))

	state, err := selectCourse(snap.Dataset, opts.selection)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch opts.format {
	case formatSummary:
		writeSummary(&buf, snap)
	case formatJSON:
		l := graph.FromDataset(snap.Dataset, state)
		if err := graph.WriteLayout(l, &buf); err != nil {
			return err
		}
	case formatDOT:
		buf.WriteString(nodelink.ToDOT(snap.Dataset, state, nodelink.Options{EdgeLabels: opts.edgeLabels}))
	case formatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(snap.Dataset, state, nodelink.Options{EdgeLabels: opts.edgeLabels}))
		if err != nil {
			return err
		}
		buf.Write(svg)
	}

	if opts.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Wrote %s map", opts.format)
	printFile(opts.output)
	return nil
}

// selectCourse resolves sel (a code or code|program) and returns the
// overlay state with it selected.
func selectCourse(ds *curriculum.Dataset, sel string) (overlay.State, error) {
	m := overlay.New(ds)
	if sel == "" {
		return m.State(), nil
	}
	id := curriculum.Identity(sel)
	if !strings.Contains(sel, "|") {
		id = ""
		for _, n := range ds.Nodes() {
			if n.Code == sel {
				id = n.ID
				break
			}
		}
	}
	if m.Click(id) == nil {
		return overlay.State{}, fmt.Errorf("course %q is not in the map", sel)
	}
	return m.State(), nil
}

func writeSummary(w io.Writer, snap loader.Snapshot) {
	ds := snap.Dataset
	name := snap.Program
	if name == "" {
		name = "all programs"
	}
	fmt.Fprintf(w, "%s: %d courses, %d prerequisites\n", name, ds.NodeCount(), ds.EdgeCount())
	for _, level := range ds.Levels() {
		nodes := ds.NodesAtLevel(level)
		codes := make([]string, len(nodes))
		for i, n := range nodes {
			codes[i] = n.Code
		}
		slices.Sort(codes)
		fmt.Fprintf(w, "  level %2d  %3d  %s\n", level, len(nodes), strings.Join(codes, " "))
	}

	r := snap.Report
	if r.Duplicates > 0 {
		fmt.Fprintf(w, "duplicates replaced: %d\n", r.Duplicates)
	}
	if r.Unresolved > 0 {
		fmt.Fprintf(w, "unresolved endpoints: %d\n", r.Unresolved)
	}
	if len(r.Ambiguous) > 0 {
		fmt.Fprintf(w, "codes shared by programs: %s\n", strings.Join(r.Ambiguous, ", "))
	}
}
