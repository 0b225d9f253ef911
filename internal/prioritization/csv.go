package prioritization

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var featureColumns = []string{"name", "reach", "impact", "confidence", "effort"}

// ReadFeaturesCSV parses a backlog with a name,reach,impact,confidence,effort
// header. Features are returned unscored and unvalidated.
func ReadFeaturesCSV(r io.Reader) ([]Feature, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: backlog file is empty", ErrInvalidFeature)
	}
	if err != nil {
		return nil, fmt.Errorf("read backlog header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range featureColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFeature, c)
		}
	}

	var features []Feature
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidFeature, line, err)
		}

		f := Feature{Name: strings.TrimSpace(record[index["name"]])}
		for _, field := range []struct {
			col string
			dst *float64
		}{
			{"reach", &f.Reach},
			{"impact", &f.Impact},
			{"confidence", &f.Confidence},
			{"effort", &f.Effort},
		} {
			raw := strings.TrimSpace(record[index[field.col]])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s %q is not a number", ErrInvalidFeature, line, field.col, raw)
			}
			*field.dst = v
		}
		features = append(features, f)
	}
	return features, nil
}
