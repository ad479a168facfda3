package history

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/curricula/pkg/backend"
	errs "github.com/matzehuels/curricula/pkg/errors"
)

// Backend is the subset of the backend client the syncer writes through.
type Backend interface {
	Fetcher
	AddHistory(ctx context.Context, userID string, add backend.HistoryAdd) (json.RawMessage, error)
	UpdateHistory(ctx context.Context, userID, code string, update backend.HistoryUpdate) (json.RawMessage, error)
	DeleteHistory(ctx context.Context, userID, code, program string) (json.RawMessage, error)
	UpdateUser(ctx context.Context, id string, update backend.UserUpdate) (json.RawMessage, error)
}

// Op names a single write in a save.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Failure is one write that did not succeed.
type Failure struct {
	Op    Op
	Entry Entry
	Err   error
}

// SaveResult reports what a save did.
type SaveResult struct {
	Added    int
	Updated  int
	Removed  int
	Failures []Failure

	// Snapshot is the history reloaded after the writes.
	Snapshot Snapshot

	// CreditsSynced is false when pushing the credit total failed.
	CreditsSynced bool
}

// OK reports whether every write succeeded.
func (r SaveResult) OK() bool {
	return len(r.Failures) == 0 && r.CreditsSynced
}

// Syncer writes drafts back to the backend.
type Syncer struct {
	backend Backend
	store   *Store
	logger  *log.Logger
}

// NewSyncer creates a syncer. The store should read from the same backend.
func NewSyncer(b Backend, store *Store, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{backend: b, store: store, logger: logger}
}

// Save writes d to the backend for (userID, program).
//
// When the backend holds no history, every draft entry is added. Otherwise
// only the draft's changes are sent. Individual write failures are collected
// in the result. Afterwards the history is reloaded into the store, the
// credit total is pushed to the user profile, and d is reset to the
// reloaded state. Errors reading or reloading the history are returned.
func (s *Syncer) Save(ctx context.Context, userID, program string, d *Draft) (SaveResult, error) {
	if err := errs.ValidateUserID(userID); err != nil {
		return SaveResult{}, err
	}
	remote, err := s.backend.History(ctx, userID, program)
	if err != nil {
		return SaveResult{}, err
	}

	var res SaveResult
	if len(remote.Courses) == 0 {
		for _, e := range d.Entries() {
			s.add(ctx, userID, e, &res)
		}
	} else {
		changes := d.Diff()
		for _, e := range changes.Update {
			s.update(ctx, userID, e, &res)
		}
		for _, e := range changes.Add {
			s.add(ctx, userID, e, &res)
		}
		for _, e := range changes.Remove {
			s.remove(ctx, userID, e, &res)
		}
	}

	snap, err := s.store.Reload(ctx, userID, program)
	if err != nil {
		return res, err
	}
	res.Snapshot = snap
	d.Reset(snap.Entries)

	total := snap.TotalCredits
	if _, err := s.backend.UpdateUser(ctx, userID, backend.UserUpdate{TotalCredits: &total}); err != nil {
		s.logger.Warn("could not update credit total", "user", userID, "credits", total, "error", err)
	} else {
		res.CreditsSynced = true
	}

	s.logger.Debug("history saved", "user", userID, "program", program,
		"added", res.Added, "updated", res.Updated, "removed", res.Removed, "failed", len(res.Failures))
	return res, nil
}

func (s *Syncer) add(ctx context.Context, userID string, e Entry, res *SaveResult) {
	_, err := s.backend.AddHistory(ctx, userID, backend.HistoryAdd{Code: e.Code, Program: e.Program})
	if s.record(OpAdd, e, err, res) {
		res.Added++
	}
}

func (s *Syncer) update(ctx context.Context, userID string, e Entry, res *SaveResult) {
	u := backend.HistoryUpdate{Program: e.Program, ApprovedAt: e.ApprovedAt}
	if e.Level > 0 {
		level := e.Level
		u.Level = &level
	}
	_, err := s.backend.UpdateHistory(ctx, userID, e.Code, u)
	if s.record(OpUpdate, e, err, res) {
		res.Updated++
	}
}

func (s *Syncer) remove(ctx context.Context, userID string, e Entry, res *SaveResult) {
	_, err := s.backend.DeleteHistory(ctx, userID, e.Code, e.Program)
	if s.record(OpRemove, e, err, res) {
		res.Removed++
	}
}

func (s *Syncer) record(op Op, e Entry, err error, res *SaveResult) bool {
	if err == nil {
		return true
	}
	s.logger.Warn("history write failed", "op", op, "course", e.Code, "program", e.Program, "error", err)
	res.Failures = append(res.Failures, Failure{Op: op, Entry: e, Err: err})
	return false
}
