package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/product-analytics/internal/repository/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func formatTS(t time.Time) string {
	return t.UTC().Format(models.TimestampLayout)
}

// EnsureSchema creates the events table and its indexes if missing.
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create events schema: %w", err)
	}
	return nil
}

// ReplaceEvents swaps the table contents for events in one transaction.
func (r *EventRepository) ReplaceEvents(ctx context.Context, events []models.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ReplaceEvents: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (session_id, user_id, event_type, conversion, revenue, device, channel, experiment_group, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert event: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.SessionID, e.UserID, e.EventType, e.Conversion, e.Revenue,
			e.Device, e.Channel, e.ExperimentGroup, formatTS(e.Timestamp),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ReplaceEvents: %w", err)
	}
	return nil
}

// CountEvents returns the number of stored event rows.
func (r *EventRepository) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("query CountEvents: %w", err)
	}
	return n, nil
}

// GetEventSpan returns the earliest and latest stored timestamps. Both are
// zero when the table is empty.
func (r *EventRepository) GetEventSpan(ctx context.Context) (time.Time, time.Time, error) {
	var minTS, maxTS sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT MIN(timestamp), MAX(timestamp) FROM events`).Scan(&minTS, &maxTS)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query GetEventSpan: %w", err)
	}
	if !minTS.Valid || !maxTS.Valid {
		return time.Time{}, time.Time{}, nil
	}

	first, err := time.Parse(models.TimestampLayout, minTS.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse GetEventSpan start: %w", err)
	}
	last, err := time.Parse(models.TimestampLayout, maxTS.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse GetEventSpan end: %w", err)
	}
	return first, last, nil
}

// GetExperimentCounts counts distinct sessions and summed conversions per experiment group.
func (r *EventRepository) GetExperimentCounts(ctx context.Context, start, end time.Time) ([]models.GroupCounts, error) {
	const query = `
		SELECT
			experiment_group,
			COUNT(DISTINCT session_id) AS sessions,
			COALESCE(SUM(conversion), 0) AS conversions
		FROM events
		WHERE timestamp >= ? AND timestamp <= ? AND experiment_group != ''
		GROUP BY experiment_group
		ORDER BY experiment_group
	`

	rows, err := r.db.QueryContext(ctx, query, formatTS(start), formatTS(end))
	if err != nil {
		return nil, fmt.Errorf("query GetExperimentCounts: %w", err)
	}
	defer rows.Close()

	var results []models.GroupCounts
	for rows.Next() {
		var g models.GroupCounts
		if err := rows.Scan(&g.Group, &g.Sessions, &g.Conversions); err != nil {
			return nil, fmt.Errorf("scan GetExperimentCounts row: %w", err)
		}
		results = append(results, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetExperimentCounts: %w", err)
	}
	return results, nil
}

// GetOverallMetrics computes headline session, user and revenue figures in SQL.
func (r *EventRepository) GetOverallMetrics(ctx context.Context, start, end time.Time) (models.OverallMetrics, error) {
	const query = `
		SELECT
			COUNT(*) AS row_count,
			COUNT(DISTINCT session_id) AS sessions,
			COUNT(DISTINCT user_id) AS users,
			COUNT(DISTINCT CASE WHEN conversion = 1 THEN session_id END) AS converted_sessions,
			COALESCE(SUM(revenue), 0) AS revenue,
			AVG(CASE WHEN revenue > 0 THEN revenue END) AS avg_order_value
		FROM events
		WHERE timestamp >= ? AND timestamp <= ?
	`

	var m models.OverallMetrics
	var aov sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, formatTS(start), formatTS(end)).
		Scan(&m.Rows, &m.Sessions, &m.Users, &m.ConvertedSessions, &m.Revenue, &aov)
	if err != nil {
		return models.OverallMetrics{}, fmt.Errorf("query GetOverallMetrics: %w", err)
	}
	if aov.Valid {
		m.AvgOrderValue = aov.Float64
	}
	return m, nil
}

// GetFunnelCounts counts distinct sessions reaching each stage. Stages
// with no events are present with a zero count.
func (r *EventRepository) GetFunnelCounts(ctx context.Context, start, end time.Time, stages []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(stages))
	if len(stages) == 0 {
		return counts, nil
	}
	for _, s := range stages {
		counts[s] = 0
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stages)), ",")
	query := fmt.Sprintf(`
		SELECT event_type, COUNT(DISTINCT session_id)
		FROM events
		WHERE timestamp >= ? AND timestamp <= ? AND event_type IN (%s)
		GROUP BY event_type
	`, placeholders)

	args := make([]any, 0, len(stages)+2)
	args = append(args, formatTS(start), formatTS(end))
	for _, s := range stages {
		args = append(args, s)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query GetFunnelCounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage string
		var n int64
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan GetFunnelCounts row: %w", err)
		}
		counts[stage] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetFunnelCounts: %w", err)
	}
	return counts, nil
}

// GetSegmentMetrics aggregates sessions, conversions and revenue by device or channel.
func (r *EventRepository) GetSegmentMetrics(ctx context.Context, start, end time.Time, dim models.Dimension) ([]models.SegmentRow, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("unsupported segment dimension %q", dim)
	}

	// dim is whitelisted above; column names cannot be bound as parameters.
	query := fmt.Sprintf(`
		SELECT
			%s AS segment,
			COUNT(DISTINCT session_id) AS sessions,
			COALESCE(SUM(conversion), 0) AS conversions,
			COALESCE(SUM(revenue), 0) AS revenue
		FROM events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY segment
		ORDER BY segment
	`, string(dim))

	rows, err := r.db.QueryContext(ctx, query, formatTS(start), formatTS(end))
	if err != nil {
		return nil, fmt.Errorf("query GetSegmentMetrics: %w", err)
	}
	defer rows.Close()

	var results []models.SegmentRow
	for rows.Next() {
		var s models.SegmentRow
		if err := rows.Scan(&s.Segment, &s.Sessions, &s.Conversions, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan GetSegmentMetrics row: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetSegmentMetrics: %w", err)
	}
	return results, nil
}

// GetRevenueInPeriod sums revenue per day, or per week when isWeekly is set.
func (r *EventRepository) GetRevenueInPeriod(ctx context.Context, start, end time.Time, isWeekly bool) ([]models.RevenueRow, error) {
	periodFormat := "%Y-%m-%d"
	if isWeekly {
		periodFormat = "%Y-W%W"
	}

	const query = `
		SELECT
			strftime(?, timestamp) AS period,
			COALESCE(SUM(revenue), 0) AS revenue
		FROM events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY period
		ORDER BY period
	`

	rows, err := r.db.QueryContext(ctx, query, periodFormat, formatTS(start), formatTS(end))
	if err != nil {
		return nil, fmt.Errorf("query GetRevenueInPeriod: %w", err)
	}
	defer rows.Close()

	var results []models.RevenueRow
	for rows.Next() {
		var rr models.RevenueRow
		if err := rows.Scan(&rr.Period, &rr.Revenue); err != nil {
			return nil, fmt.Errorf("scan GetRevenueInPeriod row: %w", err)
		}
		results = append(results, rr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetRevenueInPeriod: %w", err)
	}
	return results, nil
}

// GetCohorts groups converting users by the day of their first conversion,
// with the revenue those users generated inside the window.
func (r *EventRepository) GetCohorts(ctx context.Context, start, end time.Time) ([]models.CohortRow, error) {
	const query = `
		WITH firsts AS (
			SELECT user_id, MIN(date(timestamp)) AS cohort_date
			FROM events
			WHERE conversion = 1 AND timestamp >= ? AND timestamp <= ?
			GROUP BY user_id
		)
		SELECT
			f.cohort_date,
			COUNT(DISTINCT f.user_id) AS users,
			COALESCE(SUM(e.revenue), 0) AS revenue
		FROM firsts AS f
		JOIN events AS e ON e.user_id = f.user_id
		WHERE e.timestamp >= ? AND e.timestamp <= ?
		GROUP BY f.cohort_date
		ORDER BY f.cohort_date
	`

	s, e := formatTS(start), formatTS(end)
	rows, err := r.db.QueryContext(ctx, query, s, e, s, e)
	if err != nil {
		return nil, fmt.Errorf("query GetCohorts: %w", err)
	}
	defer rows.Close()

	var results []models.CohortRow
	for rows.Next() {
		var c models.CohortRow
		if err := rows.Scan(&c.CohortDate, &c.Users, &c.Revenue); err != nil {
			return nil, fmt.Errorf("scan GetCohorts row: %w", err)
		}
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetCohorts: %w", err)
	}
	return results, nil
}
