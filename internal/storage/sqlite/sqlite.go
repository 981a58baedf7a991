// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's database/sql package.
//
// SQLite keeps everything in a single file: no network and no separate
// server process. It backs local runs and the handler tests; production
// deployments use the MongoDB backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/homeowners-api/internal/config"
	"github.com/aanand-mishra/homeowners-api/internal/storage"
	"github.com/aanand-mishra/homeowners-api/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// driverName is go-sqlite3 with the helper functions the queries use.
const driverName = "sqlite3_homeowners"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("contains_fold", containsFold, true)
		},
	})
}

// containsFold reports whether sub occurs in s, ignoring case. SQLite's
// lower() folds ASCII only, so accented names would not match.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

const selectColumns = "SELECT id, name, date_of_birth, age, address, longitude, latitude FROM homeowners"

// New opens the SQLite database at cfg.Storage.Path, creates the
// homeowners table if it does not already exist, and returns a
// ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// The UNIQUE constraint on name closes the race between the
	// duplicate check and the insert of two concurrent creates.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS homeowners (
			id            TEXT    PRIMARY KEY,
			name          TEXT    NOT NULL UNIQUE,
			date_of_birth TEXT    NOT NULL,
			age           INTEGER NOT NULL,
			address       TEXT    NOT NULL,
			longitude     REAL    NOT NULL,
			latitude      REAL    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanHomeowner(row scanner) (types.Homeowner, error) {
	var (
		h        types.Homeowner
		dob      string
		lon, lat float64
	)

	// The order of variables in Scan must match selectColumns.
	if err := row.Scan(&h.ID, &h.Name, &dob, &h.Age, &h.Address, &lon, &lat); err != nil {
		return types.Homeowner{}, err
	}

	parsed, err := time.Parse(types.DateLayout, dob)
	if err != nil {
		return types.Homeowner{}, fmt.Errorf("parse date_of_birth %q: %w", dob, err)
	}
	h.DateOfBirth = parsed
	h.Geocoordinates = types.NewCoordinates(lon, lat)

	return h, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ─────────────────────────────────────────────────────────────────────────────
// GetHomeownerByID fetches exactly one row matched by primary key.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetHomeownerByID(ctx context.Context, id string) (types.Homeowner, error) {
	row := s.Db.QueryRowContext(ctx, selectColumns+" WHERE id = ? LIMIT 1", id)

	h, err := scanHomeowner(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Homeowner{}, storage.ErrNotFound
		}
		return types.Homeowner{}, fmt.Errorf("GetHomeownerByID: scan: %w", err)
	}

	return h, nil
}

// GetHomeownerByName fetches the row with exactly this name.
func (s *SQLite) GetHomeownerByName(ctx context.Context, name string) (types.Homeowner, error) {
	row := s.Db.QueryRowContext(ctx, selectColumns+" WHERE name = ? LIMIT 1", name)

	h, err := scanHomeowner(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Homeowner{}, storage.ErrNotFound
		}
		return types.Homeowner{}, fmt.Errorf("GetHomeownerByName: scan: %w", err)
	}

	return h, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetHomeowners returns the rows matching filter, in insertion order.
//
// contains_fold(x, '') is true, so an empty filter field matches every
// row and a single statement serves both search and list-all.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetHomeowners(ctx context.Context, filter types.Filter) ([]types.Homeowner, error) {
	rows, err := s.Db.QueryContext(ctx,
		selectColumns+`
		WHERE contains_fold(name, ?)
		  AND contains_fold(address, ?)
		ORDER BY rowid`,
		filter.Name, filter.Address,
	)
	if err != nil {
		return nil, fmt.Errorf("GetHomeowners: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so it encodes as [] rather than null.
	homeowners := make([]types.Homeowner, 0)

	for rows.Next() {
		h, err := scanHomeowner(rows)
		if err != nil {
			return nil, fmt.Errorf("GetHomeowners: scan row: %w", err)
		}
		homeowners = append(homeowners, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetHomeowners: rows iteration: %w", err)
	}

	return homeowners, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateHomeowner inserts a new row under a freshly generated id.
// Placeholders keep user input out of the SQL text.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateHomeowner(ctx context.Context, h types.Homeowner) (types.Homeowner, error) {
	h.ID = storage.NewID()

	_, err := s.Db.ExecContext(ctx,
		`INSERT INTO homeowners (id, name, date_of_birth, age, address, longitude, latitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.DateOfBirth.Format(types.DateLayout), h.Age, h.Address,
		h.Geocoordinates.Lon(), h.Geocoordinates.Lat(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Homeowner{}, storage.ErrDuplicateName
		}
		return types.Homeowner{}, fmt.Errorf("CreateHomeowner: exec: %w", err)
	}

	return h, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateHomeownerByID sets only the staged columns, then re-fetches the
// row so the caller sees exactly what is stored.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateHomeownerByID(ctx context.Context, id string, upd types.HomeownerUpdate) (types.Homeowner, error) {
	var (
		sets []string
		args []any
	)

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.DateOfBirth != nil {
		sets = append(sets, "date_of_birth = ?")
		args = append(args, upd.DateOfBirth.Format(types.DateLayout))
	}
	if upd.Age != nil {
		sets = append(sets, "age = ?")
		args = append(args, *upd.Age)
	}
	if upd.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *upd.Address)
	}
	if upd.Geocoordinates != nil {
		sets = append(sets, "longitude = ?", "latitude = ?")
		args = append(args, upd.Geocoordinates.Lon(), upd.Geocoordinates.Lat())
	}

	if len(sets) == 0 {
		return s.GetHomeownerByID(ctx, id)
	}

	args = append(args, id)
	result, err := s.Db.ExecContext(ctx,
		"UPDATE homeowners SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Homeowner{}, storage.ErrDuplicateName
		}
		return types.Homeowner{}, fmt.Errorf("UpdateHomeownerByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Homeowner{}, fmt.Errorf("UpdateHomeownerByID: rows affected: %w", err)
	}
	if affected == 0 {
		return types.Homeowner{}, storage.ErrNotFound
	}

	return s.GetHomeownerByID(ctx, id)
}

// DeleteHomeownerByID removes a row by primary key.
func (s *SQLite) DeleteHomeownerByID(ctx context.Context, id string) (bool, error) {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM homeowners WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("DeleteHomeownerByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeleteHomeownerByID: rows affected: %w", err)
	}

	return affected > 0, nil
}

// DeleteHomeownersByIDs removes every row whose id is listed.
func (s *SQLite) DeleteHomeownersByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := s.Db.ExecContext(ctx,
		"DELETE FROM homeowners WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("DeleteHomeownersByIDs: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteHomeownersByIDs: rows affected: %w", err)
	}

	return affected, nil
}

// Close closes the connection pool.
func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}
