package storage

import (
	"context"
	"time"
)

// LogAdvance appends ev to the event log. A zero OccurredAt means now.
func (d *DB) LogAdvance(ctx context.Context, ev AdvanceEvent) error {
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO advance_events(occurred_at, platform, strategy, route, step, fallback) VALUES(?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(sqliteTimestamp), ev.Platform, ev.Strategy, ev.Route, ev.Step, boolToInt(ev.Fallback))
	return err
}

// ListRecentEvents returns the most recent advance events, newest first.
// An empty platform means all platforms.
func (d *DB) ListRecentEvents(ctx context.Context, platform string, limit int) ([]AdvanceEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	args := []interface{}{}
	if platform != "" && platform != "all" {
		where = " WHERE platform = ?"
		args = append(args, platform)
	}
	args = append(args, limit)
	q := "SELECT occurred_at, platform, strategy, route, step, fallback FROM advance_events" + where + " ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []AdvanceEvent{}
	for rows.Next() {
		var ev AdvanceEvent
		var occurredAt string
		var fallback int
		if err := rows.Scan(&occurredAt, &ev.Platform, &ev.Strategy, &ev.Route, &ev.Step, &fallback); err != nil {
			return nil, err
		}
		ev.OccurredAt = parseTimestamp(occurredAt)
		ev.Fallback = fallback == 1
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetStats(ctx context.Context) ([]PlatformStats, error) {
	query := `
		SELECT
			platform,
			COUNT(*),
			COALESCE(SUM(fallback), 0),
			MAX(occurred_at)
		FROM
			advance_events
		GROUP BY
			platform
		ORDER BY
			platform;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlatformStats
	for rows.Next() {
		var s PlatformStats
		var last string
		if err := rows.Scan(&s.Platform, &s.Advances, &s.Fallbacks, &last); err != nil {
			return nil, err
		}
		s.LastAt = parseTimestamp(last)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
