package learning

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opennotary/titleparse/internal/common"
	"github.com/opennotary/titleparse/internal/entity"
)

// outcomeSchema validates one JSONL line before it is allowed into the
// append-only history. Bad lines are rejected, never half-imported.
const outcomeSchema = `{
	"type": "object",
	"required": ["field", "rule_id", "extracted"],
	"properties": {
		"id":         {"type": "string", "format": "uuid"},
		"run_id":     {"type": "string", "format": "uuid"},
		"field":      {"type": "string", "minLength": 1},
		"rule_id":    {"type": "string", "minLength": 1},
		"extracted":  {"type": "string"},
		"corrected":  {"type": ["string", "null"]},
		"context":    {"type": "string"},
		"created_at": {"type": "string", "format": "date-time"}
	},
	"additionalProperties": false
}`

var compiledOutcomeSchema = jsonschema.MustCompileString("outcome.schema.json", outcomeSchema)

// ImportStats summarizes one JSONL import.
type ImportStats struct {
	Imported int
	Rejected int
}

// ImportJSONL reads newline-delimited JSON outcomes from r and appends
// the valid ones to the store. Invalid lines are counted, logged and
// skipped; a store write failure aborts the import.
func ImportJSONL(ctx context.Context, store Store, r io.Reader, logger *slog.Logger) (ImportStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats ImportStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		outcome, err := decodeOutcomeLine(raw)
		if err != nil {
			stats.Rejected++
			logger.Warn("learning.import.rejected", "line", line, "error", err)
			continue
		}
		if err := store.Append(ctx, outcome); err != nil {
			return stats, fmt.Errorf("import line %d: %w", line, err)
		}
		stats.Imported++
	}
	if err := scanner.Err(); err != nil {
		return stats, common.WrapError(common.ErrInvalidInput, "read import stream: "+err.Error())
	}
	logger.Info("learning.import.done", "imported", stats.Imported, "rejected", stats.Rejected)
	return stats, nil
}

func decodeOutcomeLine(raw string) (entity.ValidationOutcome, error) {
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return entity.ValidationOutcome{}, fmt.Errorf("not valid JSON: %v", err)
	}
	if err := compiledOutcomeSchema.Validate(generic); err != nil {
		return entity.ValidationOutcome{}, fmt.Errorf("schema violation: %v", err)
	}
	var o entity.ValidationOutcome
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return entity.ValidationOutcome{}, fmt.Errorf("decode outcome: %v", err)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return o, nil
}
