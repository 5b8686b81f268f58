package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/opennotary/titleparse/internal/common"
	"github.com/opennotary/titleparse/internal/entity"
)

// The on-disk layout keeps the four logical views as separate tables:
// outcome (raw history, source of truth), rule_stat, correction, counter.
const schema = `
CREATE TABLE IF NOT EXISTS outcome (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	field      TEXT NOT NULL,
	rule_id    TEXT NOT NULL,
	extracted  TEXT NOT NULL,
	corrected  TEXT,
	context    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS outcome_rule_field ON outcome (rule_id, field);
CREATE TABLE IF NOT EXISTS rule_stat (
	rule_id       TEXT NOT NULL,
	field         TEXT NOT NULL,
	success_count INTEGER NOT NULL DEFAULT 0,
	failure_count INTEGER NOT NULL DEFAULT 0,
	examples      TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (rule_id, field)
);
CREATE TABLE IF NOT EXISTS correction (
	field       TEXT NOT NULL,
	wrong       TEXT NOT NULL,
	corrected   TEXT NOT NULL,
	occurrences INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (field, wrong)
);
CREATE TABLE IF NOT EXISTS counter (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore is the durable Store. Appends are serialized through a
// mutex because the derived views depend on a consistent append order;
// reads go straight to the database and may be slightly stale.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	wmu    sync.Mutex
}

// OpenSQLite opens (creating if needed) the learning database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open learning db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init learning schema: %w", err)
	}
	logger.Info("learning.store.open", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, o entity.ValidationOutcome) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(common.ErrStoreWrite, err.Error())
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.appendTx(ctx, tx, o); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrStoreWrite, err)
	}

	s.logger.Debug("learning.outcome.appended",
		"field", o.Field, "rule_id", o.RuleID, "confirmed", o.Confirmed())
	return nil
}

func (s *SQLiteStore) appendTx(ctx context.Context, tx *sql.Tx, o entity.ValidationOutcome) error {
	var corrected any
	if o.Corrected != nil {
		corrected = *o.Corrected
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outcome (id, run_id, field, rule_id, extracted, corrected, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID.String(), o.RunID.String(), o.Field, o.RuleID, o.Extracted,
		corrected, o.Context, o.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert outcome: %v", err)
	}

	// rule_stat: read-modify-write inside the tx; the writer mutex keeps
	// the derived rows consistent with append order.
	var success, failure int64
	var examplesRaw string
	err := tx.QueryRowContext(ctx,
		`SELECT success_count, failure_count, examples FROM rule_stat WHERE rule_id = ? AND field = ?`,
		o.RuleID, o.Field).Scan(&success, &failure, &examplesRaw)
	switch {
	case err == sql.ErrNoRows:
		examplesRaw = "[]"
	case err != nil:
		return fmt.Errorf("load rule_stat: %v", err)
	}
	if o.Confirmed() {
		success++
	} else {
		failure++
	}
	var examples []string
	if err := json.Unmarshal([]byte(examplesRaw), &examples); err != nil {
		examples = nil
	}
	if o.Context != "" {
		examples = append(examples, o.Context)
		if len(examples) > maxExamples {
			examples = examples[len(examples)-maxExamples:]
		}
	}
	encoded, err := json.Marshal(examples)
	if err != nil {
		return fmt.Errorf("encode examples: %v", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rule_stat (rule_id, field, success_count, failure_count, examples)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (rule_id, field) DO UPDATE SET
		   success_count = excluded.success_count,
		   failure_count = excluded.failure_count,
		   examples = excluded.examples`,
		o.RuleID, o.Field, success, failure, string(encoded)); err != nil {
		return fmt.Errorf("upsert rule_stat: %v", err)
	}

	if !o.Confirmed() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO correction (field, wrong, corrected, occurrences)
			 VALUES (?, ?, ?, 1)
			 ON CONFLICT (field, wrong) DO UPDATE SET
			   corrected = excluded.corrected,
			   occurrences = correction.occurrences + 1`,
			o.Field, o.Extracted, *o.Corrected); err != nil {
			return fmt.Errorf("upsert correction: %v", err)
		}
	}

	counter := "confirmations"
	if !o.Confirmed() {
		counter = "corrections"
	}
	for _, name := range []string{"outcomes", counter} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counter (name, value) VALUES (?, 1)
			 ON CONFLICT (name) DO UPDATE SET value = counter.value + 1`, name); err != nil {
			return fmt.Errorf("bump counter %s: %v", name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) RuleAccuracy(ctx context.Context, ruleID, field string) (float64, int64, error) {
	var success, failure int64
	err := s.db.QueryRowContext(ctx,
		`SELECT success_count, failure_count FROM rule_stat WHERE rule_id = ? AND field = ?`,
		ruleID, field).Scan(&success, &failure)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("rule accuracy lookup: %w", err)
	}
	samples := success + failure
	if samples == 0 {
		return 0, 0, nil
	}
	return float64(success) / float64(samples), samples, nil
}

func (s *SQLiteStore) Correction(ctx context.Context, field, wrong string) (string, int, error) {
	var corrected string
	var occurrences int
	err := s.db.QueryRowContext(ctx,
		`SELECT corrected, occurrences FROM correction WHERE field = ? AND wrong = ?`,
		field, wrong).Scan(&corrected, &occurrences)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("correction lookup: %w", err)
	}
	return corrected, occurrences, nil
}

func (s *SQLiteStore) RuleStats(ctx context.Context) ([]entity.RuleStatistic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, field, success_count, failure_count, examples
		 FROM rule_stat ORDER BY rule_id, field`)
	if err != nil {
		return nil, fmt.Errorf("list rule stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.RuleStatistic
	for rows.Next() {
		var st entity.RuleStatistic
		var examplesRaw string
		if err := rows.Scan(&st.RuleID, &st.Field, &st.SuccessCount, &st.FailureCount, &examplesRaw); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(examplesRaw), &st.Examples)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Corrections(ctx context.Context) ([]entity.CorrectionMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field, wrong, corrected, occurrences FROM correction ORDER BY field, wrong`)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.CorrectionMapping
	for rows.Next() {
		var cm entity.CorrectionMapping
		if err := rows.Scan(&cm.Field, &cm.Wrong, &cm.Corrected, &cm.Occurrences); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Counters(ctx context.Context) (Counters, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM counter`)
	if err != nil {
		return Counters{}, fmt.Errorf("read counters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var c Counters
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return Counters{}, err
		}
		switch name {
		case "outcomes":
			c.Outcomes = value
		case "confirmations":
			c.Confirmations = value
		case "corrections":
			c.Corrections = value
		}
	}
	return c, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
