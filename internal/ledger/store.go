package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"shothook/internal/config"
)

// Store persists job records in SQLite or MySQL.
type Store struct {
	db      *sql.DB
	dialect dialect
	target  string
}

type dialect string

const (
	dialectSQLite dialect = "sqlite"
	dialectMySQL  dialect = "mysql"
)

// Open connects to the ledger selected by cfg.Ledger, creates the schema when
// missing and marks jobs left running by a previous process as abandoned.
func Open(cfg *config.Config) (*Store, error) {
	var store *Store
	var err error
	switch cfg.Ledger.Driver {
	case config.LedgerMySQL:
		store, err = openMySQL(cfg.Ledger.DSN)
	case config.LedgerSQLite, "":
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		store, err = openSQLite(cfg.Ledger.Path)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.initSchema(ctx); err != nil {
		_ = store.db.Close()
		return nil, err
	}
	if _, err := store.ResetAbandoned(ctx); err != nil {
		_ = store.db.Close()
		return nil, err
	}
	return store, nil
}

func openSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return &Store{db: db, dialect: dialectSQLite, target: path}, nil
}

// sqliteDSN carries the pragmas in the connection string so every pooled
// connection gets them, not only the first.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func openMySQL(dsn string) (*Store, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	parsed.ParseTime = false
	connector, err := mysql.NewConnector(parsed)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(4)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return &Store{db: db, dialect: dialectMySQL, target: parsed.Addr + "/" + parsed.DBName}, nil
}

// Target describes where records are stored, for status output.
func (s *Store) Target() string {
	return string(s.dialect) + ":" + s.target
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const recordColumns = "id, kind, job_key, correlation_id, action, user_name, status, detail, error_message, error_kind, started_at, finished_at"

// Start inserts a running record.
func (s *Store) Start(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id is required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, NULL)`,
		rec.ID,
		rec.Kind,
		nullableString(rec.Key),
		nullableString(rec.CorrelationID),
		nullableString(rec.Action),
		nullableString(rec.User),
		StatusRunning,
		nullableString(rec.Detail),
		formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Finish records the terminal status of a job.
func (s *Store) Finish(ctx context.Context, id string, status Status, errMessage, errKind string, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, error_kind = ?, finished_at = ? WHERE id = ?`,
		status,
		nullableString(errMessage),
		nullableString(errKind),
		formatTime(finishedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish job %s: not found", id)
	}
	return nil
}

// Get fetches a record by id. It returns nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM jobs`
	var where []string
	var args []any
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Stats counts records per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// ResetAbandoned marks running records as abandoned. It runs at open because a
// fresh process cannot own jobs started by a previous one.
func (s *Store) ResetAbandoned(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		StatusAbandoned,
		"daemon exited before the job finished",
		formatTime(time.Now().UTC()),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset abandoned jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes finished records that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status <> ? AND started_at < ?`,
		StatusRunning,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}
