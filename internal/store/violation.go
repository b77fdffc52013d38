package store

import (
	"database/sql"
	"time"
)

// ViolationType classifies the most serious signal in a flagged frame.
type ViolationType string

const (
	ViolationFace   ViolationType = "face"
	ViolationHead   ViolationType = "head"
	ViolationHands  ViolationType = "hands"
	ViolationGadget ViolationType = "gadget"
)

// Violation is a flagged frame recorded against a session.
type Violation struct {
	ID             int64
	SessionID      string
	Type           ViolationType
	Description    string
	ScreenshotPath string
	DetectedAt     time.Time
}

// ViolationRepository provides access to recorded violations.
type ViolationRepository struct {
	db *sql.DB
}

// Violations returns the violation repository for this store.
func (s *Store) Violations() *ViolationRepository {
	return &ViolationRepository{db: s.db}
}

// Create inserts a violation and sets its ID. DetectedAt defaults to now.
func (r *ViolationRepository) Create(v *Violation) error {
	if v.DetectedAt.IsZero() {
		v.DetectedAt = time.Now().UTC()
	}

	res, err := r.db.Exec(
		`INSERT INTO violations (session_id, violation_type, description, screenshot_path, detected_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.SessionID, string(v.Type), v.Description, v.ScreenshotPath, v.DetectedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

// ListBySession returns the violations of a session in detection order.
func (r *ViolationRepository) ListBySession(sessionID string) ([]Violation, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, violation_type, description, screenshot_path, detected_at
		 FROM violations
		 WHERE session_id = ?
		 ORDER BY detected_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []Violation
	for rows.Next() {
		var v Violation
		var vt string
		if err := rows.Scan(&v.ID, &v.SessionID, &vt, &v.Description, &v.ScreenshotPath, &v.DetectedAt); err != nil {
			return nil, err
		}
		v.Type = ViolationType(vt)
		violations = append(violations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return violations, nil
}

// CountBySession returns the number of violations recorded for a session.
func (r *ViolationRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM violations WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
