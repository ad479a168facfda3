package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/overlay"
)

func intp(v int) *int { return &v }

func sampleDataset() *curriculum.Dataset {
	ds := curriculum.NewDataset("CS")
	ds.AddNode(curriculum.Node{ID: "CS101|CS", Label: "Intro", Level: 1})
	ds.AddNode(curriculum.Node{ID: "CS102|CS", Label: "Data", Level: 2})
	ds.AddEdge(curriculum.Edge{Source: "CS101|CS", Target: "CS102|CS", Kind: curriculum.KindDirect})
	ds.AddEdge(curriculum.Edge{Source: "CS102|CS", Target: "MA999", Kind: curriculum.KindCreditThreshold, CreditsRequired: intp(120)})
	layout.Assign(ds, layout.DefaultOptions())
	return ds
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleDataset(), overlay.State{}, Options{Scale: 1})

	for _, want := range []string{
		"layout=neato;",
		`"CS101|CS" [label="CS101", pos="-800,0!", fillcolor="#6366f1"`,
		`"CS102|CS" [label="CS102", pos="-600,0!"`,
		`"MA999" [label="MA999", style="dashed"`,
		`"CS101|CS" -> "CS102|CS" [color="#475569", penwidth=2, tooltip="Data"]`,
		`"CS102|CS" -> "MA999" [color="#f97316", penwidth=2, tooltip="Se necesitan 120 CRED"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTSelection(t *testing.T) {
	dot := ToDOT(sampleDataset(), overlay.State{Selected: "CS102|CS"}, Options{EdgeLabels: true})

	for _, want := range []string{
		`"CS102|CS" [label="CS102", pos="-300,0!", fillcolor="#fbbf24", color="#f59e0b", penwidth=3`,
		`"CS101|CS" -> "CS102|CS" [color="#fbbf24", penwidth=4, tooltip="Data", label="Data"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTFlipsY(t *testing.T) {
	ds := curriculum.NewDataset("")
	ds.AddNode(curriculum.Node{ID: "A", Level: 5})
	ds.AddNode(curriculum.Node{ID: "B", Level: 5})
	layout.Assign(ds, layout.DefaultOptions())

	dot := ToDOT(ds, overlay.State{}, Options{Scale: 1})
	if !strings.Contains(dot, `"A" [label="A", pos="0,40!"`) || !strings.Contains(dot, `"B" [label="B", pos="0,-40!"`) {
		t.Errorf("unexpected positions:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if plain := []byte("<svg></svg>"); string(normalizeViewBox(plain)) != "<svg></svg>" {
		t.Error("SVG without viewBox should be unchanged")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	svg, err := RenderSVG(context.Background(), ToDOT(sampleDataset(), overlay.State{}, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "CS101") {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}
