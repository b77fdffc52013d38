package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrAlreadySubmitted is returned when submitting a session twice.
var ErrAlreadySubmitted = errors.New("session already submitted")

// Session is one monitored exam attempt.
type Session struct {
	ID            string
	Enrollment    string
	StartedAt     time.Time
	SubmittedAt   *time.Time
	AutoSubmitted bool
}

// Submitted reports whether the session has been submitted.
func (s *Session) Submitted() bool {
	return s.SubmittedAt != nil
}

// SessionRepository provides CRUD operations for exam sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. StartedAt is set to now.
func (r *SessionRepository) Create(sess *Session) error {
	sess.StartedAt = time.Now().UTC()
	sess.SubmittedAt = nil
	sess.AutoSubmitted = false

	_, err := r.db.Exec(
		`INSERT INTO exam_sessions (id, enrollment, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Enrollment, sess.StartedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, enrollment, started_at, submitted_at, auto_submitted
		 FROM exam_sessions WHERE id = ?`,
		id,
	)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, enrollment, started_at, submitted_at, auto_submitted
		 FROM exam_sessions ORDER BY started_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Submit marks a session as submitted.
func (r *SessionRepository) Submit(id string, auto bool) (*Session, error) {
	sess, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sess.Submitted() {
		return nil, ErrAlreadySubmitted
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(
		`UPDATE exam_sessions SET submitted_at = ?, auto_submitted = ? WHERE id = ?`,
		now, auto, id,
	)
	if err != nil {
		return nil, err
	}

	sess.SubmittedAt = &now
	sess.AutoSubmitted = auto
	return sess, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var submitted sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Enrollment, &sess.StartedAt, &submitted, &sess.AutoSubmitted); err != nil {
		return nil, err
	}
	if submitted.Valid {
		t := submitted.Time
		sess.SubmittedAt = &t
	}
	return sess, nil
}
