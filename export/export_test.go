package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sgoldberg/nocogo/nocodb"
)

// fakeLister serves pre-baked pages and records the options it saw.
type fakeLister struct {
	pages    []nocodb.RecordList
	nextCall int
	lastOpts nocodb.ListOptions
}

func (f *fakeLister) ListRecords(_ context.Context, _, _ string, opts nocodb.ListOptions) (nocodb.RecordList, error) {
	f.lastOpts = opts
	f.nextCall = 1
	return f.pages[0], nil
}

func (f *fakeLister) FollowRecords(_ context.Context, _ string) (nocodb.RecordList, error) {
	page := f.pages[f.nextCall]
	f.nextCall++
	return page, nil
}

func TestExporterPagesThrough(t *testing.T) {
	lister := &fakeLister{
		pages: []nocodb.RecordList{
			{
				Records: []nocodb.Record{
					{ID: float64(1), Fields: map[string]any{"Name": "a"}},
					{ID: float64(2), Fields: map[string]any{"Name": "b"}},
				},
				Next: "cursor",
			},
			{
				Records: []nocodb.Record{
					{ID: float64(3), Fields: map[string]any{"Name": "c"}},
				},
			},
		},
	}

	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)

	stats, err := New(lister, sink, nil, nil).Run(context.Background(), Options{
		BaseID:  "b1",
		TableID: "t1",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Exported != 3 {
		t.Errorf("Exported = %d, want 3", stats.Exported)
	}
	if stats.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", stats.Dropped)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"Name":"a"`) || !strings.Contains(lines[0], `"Id":1`) {
		t.Errorf("first line = %q, want flattened record", lines[0])
	}
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewCSVSink(&buf)

	records := []nocodb.Record{
		{ID: float64(1), Fields: map[string]any{"Name": "Alice", "Age": float64(30)}},
		{ID: float64(2), Fields: map[string]any{"Name": "Bob"}},
	}

	if err := sink.Write(context.Background(), uuid.Nil, records); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Age,Id,Name" {
		t.Errorf("header = %q, want sorted %q", lines[0], "Age,Id,Name")
	}
	if lines[1] != "30,1,Alice" {
		t.Errorf("row 1 = %q, want %q", lines[1], "30,1,Alice")
	}
	// Bob has no Age; the cell must render empty, not shift columns.
	if lines[2] != ",2,Bob" {
		t.Errorf("row 2 = %q, want %q", lines[2], ",2,Bob")
	}
}

func TestFormatCellComposites(t *testing.T) {
	got := formatCell([]any{"x", "y"})
	if got != `["x","y"]` {
		t.Errorf("formatCell(list) = %q, want JSON", got)
	}

	got = formatCell(map[string]any{"k": "v"})
	if got != `{"k":"v"}` {
		t.Errorf("formatCell(map) = %q, want JSON", got)
	}

	if got := formatCell(nil); got != "" {
		t.Errorf("formatCell(nil) = %q, want empty", got)
	}
}
