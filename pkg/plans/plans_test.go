package plans

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/curricula/pkg/backend"
)

func TestNewRecord(t *testing.T) {
	program := "CS"
	resp := backend.PlanResponse{
		Recommended: []backend.Course{{Code: "CS102", Credits: 4}, {Code: "MA101", Credits: 5}},
	}
	r := NewRecord("u1", backend.PlanRequest{Program: &program}, resp)
	want := &Record{
		UserID:      "u1",
		Program:     "CS",
		MaxCredits:  backend.DefaultMaxCredits,
		History:     []string{},
		Recommended: resp.Recommended,
		Credits:     9,
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("NewRecord() mismatch (-want +got):\n%s", diff)
	}
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	user := "u-" + time.Now().Format("150405.000000")

	if err := s.Save(ctx, &Record{}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Save(no user) error = %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := &Record{UserID: user, Program: "CS", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if r.ID == "" {
			t.Error("Save() should assign an ID")
		}
	}
	s.Save(ctx, &Record{UserID: user + "-other"})

	got, err := s.List(ctx, user, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(got))
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("List() should be newest first, got %v", got[0].CreatedAt)
	}

	none, err := s.List(ctx, "nobody", 0)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("List(nobody) = %v, %v; want empty slice", none, err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CURRICULA_TEST_MONGO")
	if uri == "" {
		t.Skip("CURRICULA_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "curricula_test"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	storeContract(t, s)
}
