package store

import (
	"errors"
	"testing"
	"time"
)

func TestSessionRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{ID: "sess-1", Enrollment: "2024CS101"}
	before := time.Now().UTC().Add(-time.Second)
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if sess.StartedAt.Before(before) {
		t.Errorf("StartedAt should be set to now, got %v", sess.StartedAt)
	}

	got, err := repo.GetByID("sess-1")
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Enrollment != "2024CS101" {
		t.Errorf("Enrollment mismatch: got %q, want %q", got.Enrollment, "2024CS101")
	}
	if got.Submitted() {
		t.Error("new session should not be submitted")
	}
	if got.AutoSubmitted {
		t.Error("new session should not be auto submitted")
	}
}

func TestSessionRepository_CreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	if err := repo.Create(&Session{ID: "dup", Enrollment: "E"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := repo.Create(&Session{ID: "dup", Enrollment: "E"}); err == nil {
		t.Error("creating a session with an existing ID should fail")
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_Submit(t *testing.T) {
	tests := []struct {
		name string
		auto bool
	}{
		{"manual", false},
		{"auto", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			repo := s.Sessions()

			if err := repo.Create(&Session{ID: "s", Enrollment: "E"}); err != nil {
				t.Fatalf("create: %v", err)
			}

			sess, err := repo.Submit("s", tt.auto)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if !sess.Submitted() {
				t.Error("returned session should be submitted")
			}

			got, err := repo.GetByID("s")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !got.Submitted() {
				t.Error("stored session should be submitted")
			}
			if got.AutoSubmitted != tt.auto {
				t.Errorf("AutoSubmitted = %v, want %v", got.AutoSubmitted, tt.auto)
			}

			_, err = repo.Submit("s", tt.auto)
			if !errors.Is(err, ErrAlreadySubmitted) {
				t.Errorf("second submit: expected ErrAlreadySubmitted, got %v", err)
			}
		})
	}
}

func TestSessionRepository_Submit_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().Submit("missing", false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}

	for _, id := range []string{"one", "two", "three"} {
		if err := repo.Create(&Session{ID: id, Enrollment: "E-" + id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	sessions, err = repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i].StartedAt.After(sessions[i-1].StartedAt) {
			t.Errorf("sessions should be newest first: %v after %v", sessions[i].StartedAt, sessions[i-1].StartedAt)
		}
	}
}
