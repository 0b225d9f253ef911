// Package ingest loads event logs from CSV into the events store and keeps
// the store in sync with the file while the server runs.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/godilite/product-analytics/internal/repository/models"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrMalformedRow  = errors.New("malformed row")
)

// Columns lists the header names every event CSV must carry.
var Columns = []string{
	"session_id",
	"user_id",
	"event_type",
	"conversion",
	"revenue",
	"device",
	"channel",
	"experiment_group",
	"timestamp",
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ReadCSV parses an event log. The first record is the header; column order
// is free and extra columns are ignored. Row numbers in errors are 1-based
// file lines, header included.
func ReadCSV(r io.Reader) ([]models.Event, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty (no header row)", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range Columns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}

	var events []models.Event
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		e, err := parseEvent(record, index)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		events = append(events, e)
	}

	return events, nil
}

func parseEvent(record []string, index map[string]int) (models.Event, error) {
	get := func(col string) string {
		return strings.TrimSpace(record[index[col]])
	}

	e := models.Event{
		SessionID:       get("session_id"),
		UserID:          get("user_id"),
		EventType:       get("event_type"),
		Device:          get("device"),
		Channel:         get("channel"),
		ExperimentGroup: strings.ToLower(get("experiment_group")),
	}
	if e.SessionID == "" {
		return models.Event{}, fmt.Errorf("session_id is empty")
	}

	conv, err := parseConversion(get("conversion"))
	if err != nil {
		return models.Event{}, err
	}
	e.Conversion = conv

	if raw := get("revenue"); raw != "" {
		rev, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(rev) || math.IsInf(rev, 0) {
			return models.Event{}, fmt.Errorf("revenue %q is not a number", raw)
		}
		e.Revenue = rev
	}

	ts, err := parseTimestamp(get("timestamp"))
	if err != nil {
		return models.Event{}, err
	}
	e.Timestamp = ts

	return e, nil
}

func parseConversion(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && (f == 0 || f == 1) {
		return int(f), nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return 0, fmt.Errorf("conversion %q must be 0 or 1", raw)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q has an unsupported format", raw)
}
