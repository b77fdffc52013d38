package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Exam sessions - one row per monitored attempt
		`CREATE TABLE IF NOT EXISTS exam_sessions (
			id TEXT PRIMARY KEY,
			enrollment TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			submitted_at DATETIME,
			auto_submitted INTEGER NOT NULL DEFAULT 0
		)`,

		// Violations - flagged frames with their warnings and evidence reference
		`CREATE TABLE IF NOT EXISTS violations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES exam_sessions(id) ON DELETE CASCADE,
			violation_type TEXT NOT NULL CHECK(violation_type IN ('face', 'head', 'hands', 'gadget')),
			description TEXT NOT NULL DEFAULT '',
			screenshot_path TEXT NOT NULL DEFAULT '',
			detected_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_exam_sessions_enrollment ON exam_sessions(enrollment)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_session_id ON violations(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
