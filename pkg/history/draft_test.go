package history

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/curricula/pkg/errors"
)

func TestDraftAdd(t *testing.T) {
	d := NewDraft(nil)
	if err := d.Add(Entry{Code: "CS101", Program: "CS"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := d.Add(Entry{Code: " CS101 ", Program: "CS"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Add() error = %v, want ErrDuplicate", err)
	}
	if err := d.Add(Entry{Code: "CS101", Program: "EE"}); err != nil {
		t.Errorf("same code in another program: %v", err)
	}
	if err := d.Add(Entry{Code: "", Program: "CS"}); !errs.Is(err, errs.ErrCodeInvalidCourseCode) {
		t.Errorf("empty code error = %v", err)
	}
	if err := d.Add(Entry{Code: "CS102", Program: ""}); !errs.Is(err, errs.ErrCodeInvalidProgram) {
		t.Errorf("empty program error = %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestDraftRemoveAndSet(t *testing.T) {
	d := NewDraft([]Entry{{Code: "CS101", Program: "CS", Level: 1}})
	if err := d.SetLevel("CS101", "CS", 2); err != nil {
		t.Fatal(err)
	}
	if err := d.SetApprovedAt("CS101", "CS", "2024-2"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetLevel("XX", "CS", 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetLevel(missing) error = %v", err)
	}
	if d.Remove("CS101", "EE") {
		t.Error("Remove() of another program's entry should fail")
	}
	if !d.Remove("CS101", "CS") || d.Len() != 0 {
		t.Error("Remove() should drop the entry")
	}
	if d.Original()[0].Level != 1 {
		t.Error("edits must not touch the original")
	}
}

func TestDraftDiff(t *testing.T) {
	saved := []Entry{
		{Code: "A", Program: "CS", Level: 1},
		{Code: "B", Program: "CS", Level: 1},
		{Code: "C", Program: "CS", Level: 2},
	}
	tests := []struct {
		name string
		edit func(d *Draft)
		want Changes
	}{
		{
			name: "unchanged",
			edit: func(d *Draft) {},
			want: Changes{},
		},
		{
			name: "add",
			edit: func(d *Draft) { d.Add(Entry{Code: "D", Program: "CS"}) },
			want: Changes{Add: []Entry{{Code: "D", Program: "CS"}}},
		},
		{
			name: "remove",
			edit: func(d *Draft) { d.Remove("B", "CS") },
			want: Changes{Remove: []Entry{{Code: "B", Program: "CS", Level: 1}}},
		},
		{
			name: "update",
			edit: func(d *Draft) { d.SetLevel("C", "CS", 3) },
			want: Changes{Update: []Entry{{Code: "C", Program: "CS", Level: 3}}},
		},
		{
			name: "remove then re-add is an update only if fields differ",
			edit: func(d *Draft) {
				d.Remove("A", "CS")
				d.Add(Entry{Code: "A", Program: "CS", Level: 1})
			},
			want: Changes{},
		},
		{
			name: "mixed",
			edit: func(d *Draft) {
				d.Remove("A", "CS")
				d.SetApprovedAt("B", "CS", "2024-1")
				d.Add(Entry{Code: "A", Program: "EE"})
			},
			want: Changes{
				Add:    []Entry{{Code: "A", Program: "EE"}},
				Remove: []Entry{{Code: "A", Program: "CS", Level: 1}},
				Update: []Entry{{Code: "B", Program: "CS", Level: 1, ApprovedAt: "2024-1"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(saved)
			tt.edit(d)
			got := d.Diff()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
			if d.Pending() == tt.want.Empty() {
				t.Errorf("Pending() = %v, want %v", d.Pending(), !tt.want.Empty())
			}
		})
	}
}

func TestDraftCodesAndCredits(t *testing.T) {
	d := NewDraft([]Entry{{Code: "A", Program: "CS", Credits: 4}, {Code: "B", Program: "CS", Credits: 3}})
	if diff := cmp.Diff([]string{"A", "B"}, d.Codes()); diff != "" {
		t.Errorf("Codes() (-want +got):\n%s", diff)
	}
	if d.Credits() != 7 {
		t.Errorf("Credits() = %d, want 7", d.Credits())
	}
}

func TestDraftResumesFromJSON(t *testing.T) {
	d := NewDraft([]Entry{{Code: "A", Program: "CS", Credits: 4}})
	if err := d.Add(Entry{Code: "B", Program: "CS"}); err != nil {
		t.Fatal(err)
	}
	d.Remove("A", "CS")

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var got Draft
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d.Diff(), got.Diff()); diff != "" {
		t.Errorf("resumed Diff() mismatch (-want +got):\n%s", diff)
	}
}
