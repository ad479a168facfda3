package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/loader"
	"github.com/matzehuels/curricula/pkg/overlay"
)

// mapCommand opens the interactive map browser.
func (c *CLI) mapCommand() *cobra.Command {
	var (
		program string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Browse the curriculum map interactively",
		Long: `Browse the prerequisite map level by level.

Selecting a course highlights its prerequisite edges and shows what it
unlocks. Tab switches programs; a slow load is dropped if you switch again
before it finishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, cc, err := c.newClient(ctx, noCache)
			if err != nil {
				return err
			}
			defer cc.Close()

			m := newMapModel(ctx, c.newLoader(client), c.program(program))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&program, "program", "p", "", "program (carrera) to open; default all")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	return cmd
}

// =============================================================================
// mapModel - Interactive map browser
// =============================================================================

var (
	mapColumnStyle  = lipgloss.NewStyle().PaddingRight(2)
	mapCursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	mapLevelStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	mapPanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	mapNodeLabelFg  = lipgloss.Color("#ffffff")
	mapSelectedText = lipgloss.Color("#1f2937")
)

const cameraTick = 50 * time.Millisecond

type mapLoadedMsg struct {
	snap loader.Snapshot
	err  error
}

type cameraTickMsg struct{}

type mapModel struct {
	ctx    context.Context
	loader *loader.Loader

	machine *overlay.Machine
	camera  *overlay.Camera
	snap    loader.Snapshot
	cols    []layout.Column

	col, row int
	programs []string
	program  string
	loading  bool
	err      error

	width, height int
}

func newMapModel(ctx context.Context, l *loader.Loader, program string) mapModel {
	snap := l.Current()
	return mapModel{
		ctx:     ctx,
		loader:  l,
		machine: overlay.New(snap.Dataset),
		camera:  overlay.NewCamera(800, 600),
		snap:    snap,
		program: program,
		loading: true,
		width:   100,
		height:  30,
	}
}

func (m mapModel) Init() tea.Cmd {
	return m.load(m.program, true)
}

func (m mapModel) load(program string, withPrograms bool) tea.Cmd {
	l, ctx := m.loader, m.ctx
	return func() tea.Msg {
		var (
			snap loader.Snapshot
			err  error
		)
		if withPrograms {
			snap, err = l.LoadWithPrograms(ctx, program)
		} else {
			snap, err = l.Load(ctx, program)
		}
		return mapLoadedMsg{snap: snap, err: err}
	}
}

func tickCamera() tea.Cmd {
	return tea.Tick(cameraTick, func(time.Time) tea.Msg { return cameraTickMsg{} })
}

func (m mapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case mapLoadedMsg:
		if errors.Is(msg.err, loader.ErrSuperseded) {
			return m, nil
		}
		// results can arrive out of order; only the newest load may land
		if msg.err == nil && msg.snap.Generation < m.loader.Generation() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.applySnapshot(msg.snap)
		return m, m.apply(m.machine.Settled())

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.camera.Resize(float64(msg.Width)*10, float64(msg.Height)*20)
		return m, nil

	case cameraTickMsg:
		if m.camera.Animating() {
			return m, tickCamera()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *mapModel) applySnapshot(snap loader.Snapshot) {
	m.snap = snap
	m.err = snap.Err
	m.program = snap.Program
	if len(snap.Programs) > 0 {
		m.programs = snap.Programs
	}
	m.machine.Reset(snap.Dataset)
	m.cols = layout.Columns(snap.Dataset)
	m.camera.SetBounds(layout.Bounds(snap.Dataset))
	m.col = min(m.col, max(len(m.cols)-1, 0))
	m.clampRow()
	m.hover()
}

func (m mapModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampRow()
		}
	case "right", "l":
		if m.col < len(m.cols)-1 {
			m.col++
			m.clampRow()
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if c, ok := m.column(); ok && m.row < len(c.Nodes)-1 {
			m.row++
		}
	case "enter", " ":
		if id, ok := m.cursor(); ok {
			return m, m.apply(m.machine.Click(id))
		}
	case "esc":
		return m, m.apply(m.machine.BackgroundClick())
	case "f":
		if id, ok := m.cursor(); ok {
			return m, m.apply(m.machine.Focus(id))
		}
	case "tab", "shift+tab":
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		m.program = m.nextProgram(step)
		m.loading = true
		return m, m.load(m.program, false)
	case "r":
		m.loading = true
		return m, m.load(m.program, true)
	}
	m.hover()
	return m, nil
}

// apply hands a camera effect to the camera and keeps ticking while it
// animates.
func (m *mapModel) apply(e overlay.Effect) tea.Cmd {
	if e == nil {
		return nil
	}
	m.camera.Apply(e)
	return tickCamera()
}

// nextProgram cycles through "" (all programs) and the program list.
func (m mapModel) nextProgram(step int) string {
	options := append([]string{""}, m.programs...)
	i := 0
	for j, p := range options {
		if p == m.program {
			i = j
			break
		}
	}
	n := len(options)
	return options[((i+step)%n+n)%n]
}

func (m mapModel) column() (layout.Column, bool) {
	if m.col < 0 || m.col >= len(m.cols) {
		return layout.Column{}, false
	}
	return m.cols[m.col], true
}

func (m mapModel) cursor() (curriculum.Identity, bool) {
	c, ok := m.column()
	if !ok || m.row < 0 || m.row >= len(c.Nodes) {
		return "", false
	}
	return c.Nodes[m.row], true
}

func (m *mapModel) clampRow() {
	c, ok := m.column()
	if !ok {
		m.row = 0
		return
	}
	m.row = max(0, min(m.row, len(c.Nodes)-1))
}

func (m *mapModel) hover() {
	if id, ok := m.cursor(); ok {
		m.machine.PointerEnter(id)
		return
	}
	m.machine.PointerLeave()
}

// =============================================================================
// View
// =============================================================================

func (m mapModel) View() string {
	var b strings.Builder

	name := m.program
	if name == "" {
		name = "All programs"
	}
	ds := m.snap.Dataset
	b.WriteString(StyleTitle.Render(name))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d courses · %d prerequisites", ds.NodeCount(), ds.EdgeCount())))
	if m.loading {
		b.WriteString(StyleWarning.Render("  loading…"))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ level  ↑/↓ course  ⏎ select  esc clear  f focus  tab program  r reload  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n\n")
	}
	if len(m.cols) == 0 {
		if !m.loading {
			b.WriteString(StyleDim.Render("No courses to show."))
		}
		return b.String()
	}

	b.WriteString(m.renderColumns())
	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	v := m.camera.View()
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("view (%.0f, %.0f) zoom %.2f", v.Center.X, v.Center.Y, v.Zoom)))
	return b.String()
}

// renderColumns draws each level as a column of course codes colored like
// the rendered map.
func (m mapModel) renderColumns() string {
	rows := max(m.height-16, 5)
	state := m.machine.State()
	ds := m.snap.Dataset

	// keep the cursor column inside the width by scrolling columns
	colWidth := 12
	visible := max(m.width/colWidth, 1)
	first := max(0, min(m.col-visible/2, len(m.cols)-visible))

	var rendered []string
	for ci := first; ci < len(m.cols) && ci < first+visible; ci++ {
		c := m.cols[ci]
		offset := 0
		if ci == m.col && m.row >= rows {
			offset = m.row - rows + 1
		}

		lines := []string{mapLevelStyle.Render(fmt.Sprintf("Level %d", c.Level))}
		for ri := offset; ri < len(c.Nodes) && ri < offset+rows; ri++ {
			n, _ := ds.Node(c.Nodes[ri])
			box := overlay.NodeStyle(n, state)
			fg := mapNodeLabelFg
			if state.IsSelected(n.ID) {
				fg = mapSelectedText
			}
			cell := lipgloss.NewStyle().
				Background(lipgloss.Color(box.Fill)).
				Foreground(fg).
				Width(colWidth - 3).
				Render(box.Label)
			marker := "  "
			if ci == m.col && ri == m.row {
				marker = mapCursorStyle.Render("▸ ")
			}
			lines = append(lines, marker+cell)
		}
		if more := len(c.Nodes) - offset - rows; more > 0 {
			lines = append(lines, StyleDim.Render(fmt.Sprintf("  +%d", more)))
		}
		rendered = append(rendered, mapColumnStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderDetail describes the course under the cursor: its prerequisites
// and what it unlocks, with edges styled by the overlay.
func (m mapModel) renderDetail() string {
	id, ok := m.cursor()
	if !ok {
		return ""
	}
	ds := m.snap.Dataset
	n, _ := ds.Node(id)
	state := m.machine.State()

	var b strings.Builder
	b.WriteString(StyleHighlight.Render(n.Code) + " " + StyleValue.Render(n.DisplayLabel()))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  level %d · %d credits", n.Level, n.Credits)))
	if n.Program != "" {
		b.WriteString(StyleDim.Render(" · " + n.Program))
	}
	if g := n.CreditsRequiredGeneral; ds.Program != "" && g != nil && *g > 0 {
		b.WriteString("\n" + StyleWarning.Render(fmt.Sprintf("requires %d general credits", *g)))
	}

	var requires, unlocks []string
	for _, e := range ds.Incident(id) {
		stroke := overlay.EdgeStyle(e, state)
		arrow := lipgloss.NewStyle().Foreground(lipgloss.Color(stroke.Color)).Render("━━")
		if e.Target == id {
			src, _ := ds.Node(e.Source)
			requires = append(requires, arrow+" "+edgeEnd(e.Source, src)+describeEdge(e))
			continue
		}
		tgt, _ := ds.Node(e.Target)
		unlocks = append(unlocks, arrow+" "+edgeEnd(e.Target, tgt)+describeEdge(e))
	}
	if len(requires) > 0 {
		b.WriteString("\n" + StyleDim.Render("Requires:") + "\n  " + strings.Join(requires, "\n  "))
	}
	if len(unlocks) > 0 {
		b.WriteString("\n" + StyleDim.Render("Unlocks:") + "\n  " + strings.Join(unlocks, "\n  "))
	}
	return mapPanelStyle.Render(b.String())
}

func edgeEnd(id curriculum.Identity, n *curriculum.Node) string {
	if n == nil {
		return StyleWarning.Render(id.Code() + " (unresolved)")
	}
	return n.Code
}

// describeEdge appends the credit requirement of threshold edges.
func describeEdge(e curriculum.Edge) string {
	if e.Kind != curriculum.KindCreditThreshold || e.CreditsRequired == nil {
		return ""
	}
	return StyleDim.Render(fmt.Sprintf("  needs %d credits", *e.CreditsRequired))
}
