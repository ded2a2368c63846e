package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database.
// These run on startup to ensure tables exist.
//
// Amounts are stored as their exact decimal string, never as REAL: the
// ledger's conservation property depends on round-tripping amounts without
// floating point drift. Timestamps are unix nanoseconds so record ordering
// survives the round trip too.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    trip_id TEXT NOT NULL,
    id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    avatar_ref TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (trip_id, id)
);

CREATE TABLE IF NOT EXISTS expense_records (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL,
    payer_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    split_count INTEGER NOT NULL,
    is_settled INTEGER NOT NULL DEFAULT 0,
    settled_at INTEGER,
    settled_by TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS record_participants (
    record_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    PRIMARY KEY (record_id, member_id),
    FOREIGN KEY (record_id) REFERENCES expense_records(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_expense_records_trip_id ON expense_records(trip_id);
CREATE INDEX IF NOT EXISTS idx_record_participants_record_id ON record_participants(record_id);
CREATE INDEX IF NOT EXISTS idx_members_trip_id ON members(trip_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
