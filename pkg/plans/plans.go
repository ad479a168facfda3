// Package plans archives the planner's recommendations per user.
//
// Every successful plan request made by a signed-in user is saved as a
// [Record] so it can be listed later. [MongoStore] is the production
// backend; [MemoryStore] serves development and tests.
package plans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/curricula/pkg/backend"
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 20

// ErrInvalidRecord is returned when saving a record without a user.
var ErrInvalidRecord = errors.New("plan record needs a user id")

// Record is one archived plan.
type Record struct {
	ID          string           `bson:"_id" json:"id"`
	UserID      string           `bson:"user_id" json:"user_id"`
	Program     string           `bson:"program,omitempty" json:"carrera,omitempty"`
	MaxCredits  int              `bson:"max_credits" json:"max_creditos"`
	History     []string         `bson:"history" json:"historial"`
	Recommended []backend.Course `bson:"recommended" json:"recomendacion_optima"`
	Available   []backend.Course `bson:"available" json:"cursos_disponibles"`
	Credits     int              `bson:"credits" json:"creditos"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
}

// NewRecord builds a record from a plan request and its response.
func NewRecord(userID string, req backend.PlanRequest, resp backend.PlanResponse) *Record {
	req = req.WithDefaults()
	r := &Record{
		UserID:      userID,
		MaxCredits:  req.MaxCredits,
		History:     req.History,
		Recommended: resp.Recommended,
		Available:   resp.Available,
		Credits:     resp.Credits(),
	}
	if req.Program != nil {
		r.Program = *req.Program
	}
	return r
}

// Store persists plan records.
type Store interface {
	// Save stores r, assigning ID and CreatedAt when they are empty.
	Save(ctx context.Context, r *Record) error

	// List returns a user's records, newest first, at most limit of them
	// (DefaultListLimit when limit <= 0).
	List(ctx context.Context, userID string, limit int) ([]Record, error)

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

// prepare validates r and fills its generated fields.
func prepare(r *Record) error {
	if r == nil || r.UserID == "" {
		return ErrInvalidRecord
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.History == nil {
		r.History = []string{}
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
