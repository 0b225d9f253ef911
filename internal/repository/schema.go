package repository

const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		conversion INTEGER NOT NULL DEFAULT 0,
		revenue REAL NOT NULL DEFAULT 0,
		device TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL DEFAULT '',
		experiment_group TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_group ON events (experiment_group, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events (event_type, timestamp);
`
