package history

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/curriculum"
	errs "github.com/matzehuels/curricula/pkg/errors"
)

var (
	// ErrDuplicate is returned when adding an entry whose (code, program)
	// is already in the draft.
	ErrDuplicate = errors.New("course already in history")

	// ErrNotFound is returned when an entry to modify is not in the draft.
	ErrNotFound = errors.New("course not in history")
)

// Entry is one approved course.
type Entry struct {
	Code       string `json:"curso_codigo"`
	Program    string `json:"carrera"`
	Name       string `json:"nombre,omitempty"`
	Credits    int    `json:"creditos,omitempty"`
	Level      int    `json:"nivel,omitempty"`
	ApprovedAt string `json:"aprobado_en,omitempty"`
}

// Key returns the entry's (code, program) identity.
func (e Entry) Key() curriculum.Identity {
	return curriculum.MakeIdentity(e.Code, e.Program)
}

// FromBackend converts backend history rows.
func FromBackend(rows []backend.HistoryCourse) []Entry {
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry(r)
	}
	return out
}

// Changes is the difference between a draft and its original.
type Changes struct {
	Add    []Entry
	Remove []Entry
	Update []Entry // present in both, level or approval date changed
}

// Empty reports whether there is nothing to save.
func (c Changes) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0 && len(c.Update) == 0
}

// Draft is an editable copy of a history. Not safe for concurrent use.
type Draft struct {
	original []Entry
	current  []Entry
}

// NewDraft starts a draft from the given saved entries.
func NewDraft(saved []Entry) *Draft {
	d := &Draft{}
	d.Reset(saved)
	return d
}

// Reset makes saved both the original and the working state.
func (d *Draft) Reset(saved []Entry) {
	d.original = slices.Clone(saved)
	d.current = slices.Clone(saved)
}

// Entries returns the working entries in insertion order.
func (d *Draft) Entries() []Entry {
	return slices.Clone(d.current)
}

// Original returns the entries the draft was loaded from.
func (d *Draft) Original() []Entry {
	return slices.Clone(d.original)
}

type draftJSON struct {
	Original []Entry `json:"original"`
	Current  []Entry `json:"current"`
}

// MarshalJSON stores both states so a draft can be resumed later.
func (d *Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftJSON{Original: nonNil(d.original), Current: nonNil(d.current)})
}

// UnmarshalJSON restores a draft written by MarshalJSON.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var v draftJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	d.original, d.current = v.Original, v.Current
	return nil
}

func nonNil(es []Entry) []Entry {
	if es == nil {
		return []Entry{}
	}
	return es
}

// Len returns the number of working entries.
func (d *Draft) Len() int { return len(d.current) }

// Credits sums the credits of the working entries.
func (d *Draft) Credits() int {
	total := 0
	for _, e := range d.current {
		total += e.Credits
	}
	return total
}

// Codes returns the working entries' bare codes, the planner's input.
func (d *Draft) Codes() []string {
	out := make([]string, len(d.current))
	for i, e := range d.current {
		out[i] = e.Code
	}
	return out
}

// Has reports whether (code, program) is in the working entries.
func (d *Draft) Has(code, program string) bool {
	return d.index(code, program) >= 0
}

// Add appends e. The code and program must be valid and the pair must not
// already be present.
func (d *Draft) Add(e Entry) error {
	e.Code = strings.TrimSpace(e.Code)
	e.Program = strings.TrimSpace(e.Program)
	if err := errs.ValidateCourseCode(e.Code); err != nil {
		return err
	}
	if err := errs.ValidateProgram(e.Program); err != nil {
		return err
	}
	if d.Has(e.Code, e.Program) {
		return ErrDuplicate
	}
	d.current = append(d.current, e)
	return nil
}

// Remove drops (code, program) and reports whether it was present.
func (d *Draft) Remove(code, program string) bool {
	i := d.index(code, program)
	if i < 0 {
		return false
	}
	d.current = slices.Delete(d.current, i, i+1)
	return true
}

// SetLevel changes the term an entry was approved in.
func (d *Draft) SetLevel(code, program string, level int) error {
	i := d.index(code, program)
	if i < 0 {
		return ErrNotFound
	}
	d.current[i].Level = level
	return nil
}

// SetApprovedAt changes an entry's approval date.
func (d *Draft) SetApprovedAt(code, program, at string) error {
	i := d.index(code, program)
	if i < 0 {
		return ErrNotFound
	}
	d.current[i].ApprovedAt = at
	return nil
}

// Pending reports whether the draft differs from its original.
func (d *Draft) Pending() bool {
	return !d.Diff().Empty()
}

// Diff computes the changes from the original to the working entries.
// Each list keeps the order of the state it was taken from.
func (d *Draft) Diff() Changes {
	orig := make(map[curriculum.Identity]Entry, len(d.original))
	for _, e := range d.original {
		orig[e.Key()] = e
	}
	cur := make(map[curriculum.Identity]struct{}, len(d.current))

	var c Changes
	for _, e := range d.current {
		cur[e.Key()] = struct{}{}
		o, ok := orig[e.Key()]
		switch {
		case !ok:
			c.Add = append(c.Add, e)
		case o.Level != e.Level || o.ApprovedAt != e.ApprovedAt:
			c.Update = append(c.Update, e)
		}
	}
	for _, e := range d.original {
		if _, ok := cur[e.Key()]; !ok {
			c.Remove = append(c.Remove, e)
		}
	}
	return c
}

func (d *Draft) index(code, program string) int {
	key := curriculum.MakeIdentity(strings.TrimSpace(code), strings.TrimSpace(program))
	return slices.IndexFunc(d.current, func(e Entry) bool { return e.Key() == key })
}
