package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nowplaying/internal/metrics"
)

// ErrNotFound is returned when no render has been recorded for an identifier.
var ErrNotFound = errors.New("render not found")

// RenderRecord is one ledger row: the metadata snapshot a cached poster
// was drawn from.
type RenderRecord struct {
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title"`
	Views       string    `json:"views"`
	Duration    string    `json:"duration"`
	Live        bool      `json:"live"`
	CoverURL    string    `json:"coverUrl"`
	Placeholder bool      `json:"placeholder"`
	CachePath   string    `json:"cachePath"`
	RenderMs    int64     `json:"renderMs"`
	RenderCount int       `json:"renderCount"`
	RenderedAt  time.Time `json:"renderedAt"`
}

// RecordRender inserts or replaces the ledger row for rec.Identifier and
// bumps its render count.
func (d *Database) RecordRender(ctx context.Context, rec RenderRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_render", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	renderedAt := rec.RenderedAt
	if renderedAt.IsZero() {
		renderedAt = time.Now()
	}

	_, err = d.db.ExecContext(ctx, `
	INSERT INTO renders (identifier, title, views, duration, live, cover_url, placeholder, cache_path, duration_ms, rendered_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(identifier) DO UPDATE SET
		title = excluded.title,
		views = excluded.views,
		duration = excluded.duration,
		live = excluded.live,
		cover_url = excluded.cover_url,
		placeholder = excluded.placeholder,
		cache_path = excluded.cache_path,
		duration_ms = excluded.duration_ms,
		render_count = renders.render_count + 1,
		rendered_at = excluded.rendered_at
	`,
		rec.Identifier,
		rec.Title,
		rec.Views,
		rec.Duration,
		rec.Live,
		rec.CoverURL,
		rec.Placeholder,
		rec.CachePath,
		rec.RenderMs,
		renderedAt.Unix(),
	)
	return err
}

const renderColumns = `identifier, title, views, duration, live, cover_url, placeholder, cache_path, duration_ms, render_count, rendered_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRender(row rowScanner) (RenderRecord, error) {
	var rec RenderRecord
	var renderedAt int64
	err := row.Scan(
		&rec.Identifier, &rec.Title, &rec.Views, &rec.Duration, &rec.Live,
		&rec.CoverURL, &rec.Placeholder, &rec.CachePath, &rec.RenderMs,
		&rec.RenderCount, &renderedAt,
	)
	if err != nil {
		return RenderRecord{}, err
	}
	rec.RenderedAt = time.Unix(renderedAt, 0)
	return rec, nil
}

// GetRender returns the ledger row for identifier, or ErrNotFound.
func (d *Database) GetRender(ctx context.Context, identifier string) (RenderRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_render", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec RenderRecord
	rec, err = scanRender(d.db.QueryRowContext(ctx,
		"SELECT "+renderColumns+" FROM renders WHERE identifier = ?", identifier))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return RenderRecord{}, ErrNotFound
	}
	return rec, err
}

// ListRenders returns up to limit rows, most recently rendered first.
func (d *Database) ListRenders(ctx context.Context, limit int) ([]RenderRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_renders", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+renderColumns+" FROM renders ORDER BY rendered_at DESC, identifier LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]RenderRecord, 0, limit)
	for rows.Next() {
		var rec RenderRecord
		rec, err = scanRender(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	err = rows.Err()
	return records, err
}

// GetStats summarizes the ledger for the metrics collector. Errors are
// recorded in query metrics and reported as zero stats.
func (d *Database) GetStats() metrics.Stats {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	err = d.db.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COALESCE(SUM(placeholder), 0),
		COALESCE(SUM(live), 0)
	FROM renders
	`).Scan(&stats.TotalRenders, &stats.PlaceholderRenders, &stats.LiveRenders)
	if err != nil {
		return metrics.Stats{}
	}
	return stats
}

var _ metrics.StatsProvider = (*Database)(nil)
