package curriculum

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMakeIdentity(t *testing.T) {
	tests := []struct {
		code, program string
		want          Identity
		wantCode      string
		wantProgram   string
	}{
		{"CS101", "CS", "CS101|CS", "CS101", "CS"},
		{"CS101", "", "CS101", "CS101", ""},
		{"MA264", "Ingeniería de Software", "MA264|Ingeniería de Software", "MA264", "Ingeniería de Software"},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			id := MakeIdentity(tt.code, tt.program)
			if id != tt.want {
				t.Errorf("MakeIdentity() = %q, want %q", id, tt.want)
			}
			if got := id.Code(); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
			if got := id.Program(); got != tt.wantProgram {
				t.Errorf("Program() = %q, want %q", got, tt.wantProgram)
			}
		})
	}
}

func TestDatasetAddNodeLastWriteWins(t *testing.T) {
	ds := NewDataset("")

	if replaced := ds.AddNode(Node{ID: "A|CS", Label: "first"}); replaced {
		t.Error("first AddNode reported a replacement")
	}
	ds.AddNode(Node{ID: "B|CS", Label: "other"})
	if replaced := ds.AddNode(Node{ID: "A|CS", Label: "second"}); !replaced {
		t.Error("duplicate AddNode should report a replacement")
	}

	if ds.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", ds.NodeCount())
	}
	n, ok := ds.Node("A|CS")
	if !ok {
		t.Fatal("node A|CS missing")
	}
	if n.Label != "second" {
		t.Errorf("Label = %q, want second", n.Label)
	}
	if n.Code != "A" {
		t.Errorf("Code = %q, want derived code A", n.Code)
	}

	var order []Identity
	for _, n := range ds.Nodes() {
		order = append(order, n.ID)
	}
	if diff := cmp.Diff([]Identity{"A|CS", "B|CS"}, order); diff != "" {
		t.Errorf("insertion order mismatch (-want +got):\n%s", diff)
	}
}

func TestDatasetLevels(t *testing.T) {
	ds := NewDataset("CS")
	ds.AddNode(Node{ID: "C", Level: 3})
	ds.AddNode(Node{ID: "A", Level: 1})
	ds.AddNode(Node{ID: "Z"})
	ds.AddNode(Node{ID: "B", Level: 1})

	if diff := cmp.Diff([]int{0, 1, 3}, ds.Levels()); diff != "" {
		t.Errorf("Levels() mismatch (-want +got):\n%s", diff)
	}

	var ids []Identity
	for _, n := range ds.NodesAtLevel(1) {
		ids = append(ids, n.ID)
	}
	if diff := cmp.Diff([]Identity{"A", "B"}, ids); diff != "" {
		t.Errorf("NodesAtLevel(1) mismatch (-want +got):\n%s", diff)
	}
}

func TestDatasetResolvedAndIncident(t *testing.T) {
	ds := NewDataset("")
	ds.AddNode(Node{ID: "A|CS"})
	ds.AddNode(Node{ID: "B|CS"})
	ds.AddEdge(Edge{Source: "A|CS", Target: "B|CS", Kind: KindDirect})
	ds.AddEdge(Edge{Source: "X", Target: "B|CS", Kind: KindDirect})

	edges := ds.Edges()
	if !ds.Resolved(edges[0]) {
		t.Error("edge between existing nodes should be resolved")
	}
	if ds.Resolved(edges[1]) {
		t.Error("edge with fallback endpoint should not be resolved")
	}

	if got := len(ds.Incident("B|CS")); got != 2 {
		t.Errorf("Incident(B|CS) = %d edges, want 2", got)
	}
	if got := len(ds.Incident("A|CS")); got != 1 {
		t.Errorf("Incident(A|CS) = %d edges, want 1", got)
	}
	if got := len(ds.Incident("")); got != 0 {
		t.Errorf("Incident(\"\") = %d edges, want 0", got)
	}
}

func TestDatasetEdgesIsCopy(t *testing.T) {
	ds := NewDataset("")
	ds.AddEdge(Edge{Source: "A", Target: "B"})

	edges := ds.Edges()
	edges[0].Source = "mutated"

	if ds.Edges()[0].Source != "A" {
		t.Error("Edges() should return a copy")
	}
}

func TestEdgeKindValid(t *testing.T) {
	if !KindDirect.Valid() || !KindCreditThreshold.Valid() {
		t.Error("known kinds should be valid")
	}
	if EdgeKind("OTHER").Valid() {
		t.Error("unknown kind should be invalid")
	}
}
