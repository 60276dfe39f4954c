package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/ArtemOtr/taskflow/internal/taskerr"
	"github.com/pressly/goose/v3"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialect abstracts the two backends the teacher's go.mod carries:
// modernc.org/sqlite (pure Go, the default for local/dev use) and
// jackc/pgx/v5 via its database/sql shim (for a shared Postgres
// deployment). Unlike the teacher, which only ever targets one backend
// per build, this store picks its driver from the DSN at runtime so the
// same binary serves both.
type dialect struct {
	driverName   string
	gooseDialect string
}

var (
	sqliteDialect   = dialect{driverName: "sqlite", gooseDialect: "sqlite3"}
	postgresDialect = dialect{driverName: "pgx", gooseDialect: "postgres"}
)

// sqlStore implements Store over database/sql.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

// Open opens a Store for dsn, running embedded migrations before
// returning. A dsn beginning with "postgres://" or "postgresql://" uses
// jackc/pgx/v5's stdlib driver; anything else is treated as a
// modernc.org/sqlite path (including ":memory:" for tests).
func Open(ctx context.Context, dsn string) (Store, error) {
	d := sqliteDialect
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d = postgresDialect
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, taskerr.Storef(err, "open %s", d.driverName)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, taskerr.Storef(err, "ping %s", d.driverName)
	}

	if err := goose.SetBaseFS(migrationsFS); err != nil {
		db.Close()
		return nil, taskerr.Storef(err, "set goose base filesystem")
	}
	if err := goose.SetDialect(d.gooseDialect); err != nil {
		db.Close()
		return nil, taskerr.Storef(err, "set goose dialect %s", d.gooseDialect)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, taskerr.Storef(err, "run migrations")
	}

	return &sqlStore{db: db, d: d}, nil
}

// rebind rewrites "?" placeholders into the dialect's native form.
// modernc.org/sqlite accepts "?" as-is; pgx's stdlib driver requires
// "$1", "$2", ... in positional order.
func (s *sqlStore) rebind(query string) string {
	if s.d != postgresDialect {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InitPartition is a no-op: the shared task_states table already exists
// from migrations, and a fresh run simply has no rows under its run id
// until the executor starts saving them.
func (s *sqlStore) InitPartition(ctx context.Context, runID string) error {
	return nil
}

func (s *sqlStore) CleanupPartition(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM task_states WHERE run_id = ?`), runID)
	if err != nil {
		return taskerr.Storef(err, "cleanup partition %s", runID)
	}
	return nil
}

func (s *sqlStore) Save(ctx context.Context, state TaskState) error {
	paramsJSON, err := marshalJSONMap(state.Params)
	if err != nil {
		return taskerr.Storef(err, "marshal params for task %s", state.TaskID)
	}
	resultJSON, err := marshalJSONMap(state.Result)
	if err != nil {
		return taskerr.Storef(err, "marshal result for task %s", state.TaskID)
	}

	now := state.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	createdAt := state.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	existing, found, err := s.LoadTask(ctx, state.RunID, state.TaskID)
	if err != nil {
		return err
	}
	if found {
		createdAt = existing.CreatedAt
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO task_states (run_id, task_id, status, attempt, params, result, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, task_id) DO UPDATE SET
			status = excluded.status,
			attempt = excluded.attempt,
			params = excluded.params,
			result = excluded.result,
			error = excluded.error,
			updated_at = excluded.updated_at
	`), state.RunID, state.TaskID, string(state.Status), state.Attempt, paramsJSON, resultJSON, state.Error, createdAt, now)
	if err != nil {
		return taskerr.Storef(err, "save task %s/%s", state.RunID, state.TaskID)
	}
	return nil
}

func (s *sqlStore) Load(ctx context.Context, runID string) ([]TaskState, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT run_id, task_id, status, attempt, params, result, error, created_at, updated_at
		FROM task_states WHERE run_id = ?
	`), runID)
	if err != nil {
		return nil, taskerr.Storef(err, "load run %s", runID)
	}
	defer rows.Close()

	var out []TaskState
	for rows.Next() {
		state, err := scanTaskState(rows)
		if err != nil {
			return nil, taskerr.Storef(err, "scan run %s", runID)
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

func (s *sqlStore) LoadTask(ctx context.Context, runID, taskID string) (TaskState, bool, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT run_id, task_id, status, attempt, params, result, error, created_at, updated_at
		FROM task_states WHERE run_id = ? AND task_id = ?
	`), runID, taskID)

	state, err := scanTaskState(row)
	if err == sql.ErrNoRows {
		return TaskState{}, false, nil
	}
	if err != nil {
		return TaskState{}, false, taskerr.Storef(err, "load task %s/%s", runID, taskID)
	}
	return state, true, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskState(row rowScanner) (TaskState, error) {
	var (
		state      TaskState
		status     string
		paramsJSON string
		resultJSON string
	)
	if err := row.Scan(&state.RunID, &state.TaskID, &status, &state.Attempt,
		&paramsJSON, &resultJSON, &state.Error, &state.CreatedAt, &state.UpdatedAt); err != nil {
		return TaskState{}, err
	}
	state.Status = Status(status)

	params, err := unmarshalJSONMap(paramsJSON)
	if err != nil {
		return TaskState{}, err
	}
	state.Params = params

	result, err := unmarshalJSONMap(resultJSON)
	if err != nil {
		return TaskState{}, err
	}
	state.Result = result
	return state, nil
}
