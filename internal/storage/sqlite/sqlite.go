// Package sqlite provides the persisted implementation of storage.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/tripmate/tripledger/internal/models"
	"github.com/tripmate/tripledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertExpenseRecord persists a new record atomically: the record row and
// all of its participant rows commit in one transaction, so readers never
// see a record without its participants.
func (s *SQLiteStore) InsertExpenseRecord(ctx context.Context, rec *models.ExpenseRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var settledAt any
	if rec.SettledAt != nil {
		settledAt = rec.SettledAt.UnixNano()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expense_records
		 (id, trip_id, payer_id, amount, currency, description, split_count, is_settled, settled_at, settled_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TripID, rec.PayerID, rec.Amount.String(), rec.Currency, rec.Description,
		rec.SplitCount, boolToInt(rec.IsSettled), settledAt, rec.SettledBy, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense record: %w", err)
	}

	// Participants are a set; the primary key absorbs duplicate ids from
	// callers that have not deduplicated yet.
	for _, memberID := range rec.SplitParticipants {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO record_participants (record_id, member_id) VALUES (?, ?)",
			rec.ID, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListExpenseRecords returns all records of a trip, settled ones included,
// ordered by creation time then id.
func (s *SQLiteStore) ListExpenseRecords(ctx context.Context, tripID string) ([]models.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, payer_id, amount, currency, description, split_count, is_settled, settled_at, settled_by, created_at
		 FROM expense_records WHERE trip_id = ? ORDER BY created_at, id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense records: %w", err)
	}
	defer rows.Close()

	var records []models.ExpenseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense records: %w", err)
	}

	// Attach participants per record. Separate queries keep the scan
	// simple; record counts per trip are small.
	for i := range records {
		participants, err := s.listParticipants(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].SplitParticipants = participants
	}

	return records, nil
}

// UpdateSettlement applies the one-way settlement transition inside a
// transaction. Settling an already settled record is a successful no-op
// that preserves the original SettledAt and SettledBy.
func (s *SQLiteStore) UpdateSettlement(ctx context.Context, tripID, recordID, by string, at time.Time) (models.ExpenseRecord, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ExpenseRecord{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var settled int
	err = tx.QueryRowContext(ctx,
		"SELECT is_settled FROM expense_records WHERE id = ? AND trip_id = ?",
		recordID, tripID,
	).Scan(&settled)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExpenseRecord{}, false, fmt.Errorf("expense record %s: %w", recordID, storage.ErrNotFound)
	}
	if err != nil {
		return models.ExpenseRecord{}, false, fmt.Errorf("failed to check settlement state: %w", err)
	}

	applied := false
	if settled == 0 {
		_, err = tx.ExecContext(ctx,
			"UPDATE expense_records SET is_settled = 1, settled_at = ?, settled_by = ? WHERE id = ?",
			at.UnixNano(), by, recordID,
		)
		if err != nil {
			return models.ExpenseRecord{}, false, fmt.Errorf("failed to update settlement: %w", err)
		}
		applied = true
	}

	row := tx.QueryRowContext(ctx,
		`SELECT id, trip_id, payer_id, amount, currency, description, split_count, is_settled, settled_at, settled_by, created_at
		 FROM expense_records WHERE id = ?`,
		recordID,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return models.ExpenseRecord{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return models.ExpenseRecord{}, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	rec.SplitParticipants, err = s.listParticipants(ctx, rec.ID)
	if err != nil {
		return models.ExpenseRecord{}, false, err
	}

	return rec, applied, nil
}

// ListMembers returns the trip's member directory entries ordered by id.
func (s *SQLiteStore) ListMembers(ctx context.Context, tripID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, display_name, avatar_ref FROM members WHERE trip_id = ? ORDER BY id",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.AvatarRef); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// UpsertMember writes a member directory entry. Profile sync from the
// member service lands here; a name change only touches this table, the
// expense rows reference members by id.
func (s *SQLiteStore) UpsertMember(ctx context.Context, tripID string, m models.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (trip_id, id, display_name, avatar_ref) VALUES (?, ?, ?, ?)
		 ON CONFLICT (trip_id, id) DO UPDATE SET display_name = excluded.display_name, avatar_ref = excluded.avatar_ref`,
		tripID, m.ID, m.DisplayName, m.AvatarRef,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.ExpenseRecord, error) {
	var (
		rec       models.ExpenseRecord
		amount    string
		settled   int
		settledAt sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&rec.ID, &rec.TripID, &rec.PayerID, &amount, &rec.Currency, &rec.Description,
		&rec.SplitCount, &settled, &settledAt, &rec.SettledBy, &createdAt)
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("failed to scan expense record: %w", err)
	}

	rec.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	rec.IsSettled = settled != 0
	if settledAt.Valid {
		t := time.Unix(0, settledAt.Int64).UTC()
		rec.SettledAt = &t
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()

	return rec, nil
}

func (s *SQLiteStore) listParticipants(ctx context.Context, recordID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id FROM record_participants WHERE record_id = ? ORDER BY member_id",
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list record participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, fmt.Errorf("failed to scan record participant: %w", err)
		}
		participants = append(participants, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record participants: %w", err)
	}

	return participants, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
