package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"

	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

type DB struct {
	sql *sql.DB
}

// Open opens (creating if needed) the sqlite store at path and seeds any
// settings key that is missing.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS settings (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS advance_events (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  platform    TEXT NOT NULL,
  strategy    TEXT NOT NULL,
  route       TEXT NOT NULL DEFAULT '',
  step        TEXT NOT NULL DEFAULT '',
  fallback    INTEGER NOT NULL DEFAULT 0 CHECK (fallback IN (0,1))
);
CREATE INDEX IF NOT EXISTS idx_events_time ON advance_events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_platform ON advance_events(platform, occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	d := &DB{sql: db}
	if err := d.Install(context.Background(), false); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Install writes the default value of every settings key. With overwrite
// false only missing keys are written.
func (d *DB) Install(ctx context.Context, overwrite bool) error {
	verb := "INSERT OR IGNORE"
	if overwrite {
		verb = "INSERT OR REPLACE"
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := verb + " INTO settings(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)"
	for _, id := range platforms.All {
		def := settings.Defaults(id)
		values := map[settings.Field]any{
			settings.Toggle:         def.Enabled,
			settings.Interval:       def.IntervalSeconds,
			settings.DetectVideoEnd: def.DetectVideoEnd,
			settings.ScrollAfter:    def.ScrollAfterSeconds,
		}
		for _, f := range settings.Fields {
			raw, err := json.Marshal(values[f])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q, settings.Key(id, f), string(raw)); err != nil {
				return fmt.Errorf("write %s: %w", settings.Key(id, f), err)
			}
		}
	}
	return tx.Commit()
}

// Get returns the raw JSON value of key and whether it exists.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores a raw JSON scalar under key.
func (d *DB) Set(ctx context.Context, key, rawJSON string) error {
	if !gjson.Valid(rawJSON) {
		return fmt.Errorf("value for %s is not valid JSON: %q", key, rawJSON)
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO settings(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, rawJSON)
	return err
}

// SaveField stores one typed field of a platform's settings.
func (d *DB) SaveField(ctx context.Context, id platforms.ID, f settings.Field, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", settings.Key(id, f), err)
	}
	return d.Set(ctx, settings.Key(id, f), string(raw))
}

// LoadSettings reads the four keys of id. Missing or unusable values are
// defaulted: toggle is on only when literally true, detection is off only
// when literally false, and numeric fields take their leading integer.
func (d *DB) LoadSettings(ctx context.Context, id platforms.ID) (settings.Settings, error) {
	keys := settings.Keys(id)
	rows, err := d.sql.QueryContext(ctx, "SELECT key, value FROM settings WHERE key IN (?, ?, ?, ?)",
		keys[settings.Toggle], keys[settings.Interval], keys[settings.DetectVideoEnd], keys[settings.ScrollAfter])
	if err != nil {
		return settings.Settings{}, err
	}
	defer rows.Close()

	raw := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return settings.Settings{}, err
		}
		raw[k] = v
	}
	if err := rows.Err(); err != nil {
		return settings.Settings{}, err
	}
	return Decode(id, raw), nil
}

// Decode applies the read-side defaulting to raw values keyed by store key.
func Decode(id platforms.ID, raw map[string]string) settings.Settings {
	keys := settings.Keys(id)
	get := func(f settings.Field) gjson.Result {
		v, ok := raw[keys[f]]
		if !ok {
			return gjson.Result{}
		}
		return gjson.Parse(v)
	}

	s := settings.Settings{
		Enabled:            get(settings.Toggle).Type == gjson.True,
		IntervalSeconds:    leadingInt(get(settings.Interval)),
		DetectVideoEnd:     get(settings.DetectVideoEnd).Type != gjson.False,
		ScrollAfterSeconds: leadingInt(get(settings.ScrollAfter)),
	}
	if s.IntervalSeconds == 0 {
		s.IntervalSeconds = id.DefaultInterval()
	}
	return s
}

// leadingInt is lenient: numbers truncate, strings yield their leading
// integer, anything else is 0.
func leadingInt(r gjson.Result) int {
	switch r.Type {
	case gjson.Number:
		return int(r.Num)
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		end := 0
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' || end == 0 && (c == '-' || c == '+') {
				end++
				continue
			}
			break
		}
		n, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Setting is one raw row of the settings table.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSettings returns every stored key, optionally limited to one platform.
func (d *DB) ListSettings(ctx context.Context, id platforms.ID) ([]Setting, error) {
	q := "SELECT key, value, updated_at FROM settings"
	args := []interface{}{}
	if id != "" {
		q += " WHERE key LIKE ?"
		args = append(args, string(id)+"-%")
	}
	q += " ORDER BY key"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Setting{}
	for rows.Next() {
		var s Setting
		var updated string
		if err := rows.Scan(&s.Key, &s.Value, &updated); err != nil {
			return nil, err
		}
		s.UpdatedAt = parseTimestamp(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

const sqliteTimestamp = "2006-01-02 15:04:05"

// parseTimestamp accepts CURRENT_TIMESTAMP text and RFC3339 (what the driver
// yields for DATETIME columns).
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(sqliteTimestamp, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
