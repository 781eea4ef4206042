package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/sgoldberg/nocogo/nocodb"
)

// Sink receives exported records in pages. Write may be called any number
// of times before Close.
type Sink interface {
	Write(ctx context.Context, batchID uuid.UUID, records []nocodb.Record) error
	Close() error
}

// JSONLinesSink writes one flattened record per line.
type JSONLinesSink struct {
	w io.Writer
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w}
}

func (s *JSONLinesSink) Write(ctx context.Context, batchID uuid.UUID, records []nocodb.Record) error {
	enc := json.NewEncoder(s.w)
	for _, r := range records {
		if err := enc.Encode(nocodb.Flatten(r)); err != nil {
			return fmt.Errorf("cannot encode record: %w", err)
		}
	}
	return nil
}

func (s *JSONLinesSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// CSVSink writes flattened records as CSV rows. The header is fixed from
// the first record's sorted field names; later records contribute only the
// columns the header names, missing values render empty.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
	header []string
}

func NewCSVSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *CSVSink) Write(ctx context.Context, batchID uuid.UUID, records []nocodb.Record) error {
	for _, r := range records {
		flat := nocodb.Flatten(r)

		if s.header == nil {
			s.header = make([]string, 0, len(flat))
			for k := range flat {
				s.header = append(s.header, k)
			}
			slices.Sort(s.header)

			if err := s.w.Write(s.header); err != nil {
				return fmt.Errorf("cannot write csv header: %w", err)
			}
		}

		row := make([]string, len(s.header))
		for i, col := range s.header {
			row[i] = formatCell(flat[col])
		}
		if err := s.w.Write(row); err != nil {
			return fmt.Errorf("cannot write csv row: %w", err)
		}
	}

	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// formatCell renders one field value for CSV. Composite values (linked
// records, attachments) are JSON-encoded rather than fmt-printed so they
// survive a round trip through a spreadsheet.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
