// Package export streams records out of a table into a sink, optionally
// passing each record through a Lua transform first.
package export

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sgoldberg/nocogo/nocodb"
	"github.com/sgoldberg/nocogo/where"
)

// RecordLister is the slice of the API client the exporter needs.
type RecordLister interface {
	ListRecords(ctx context.Context, baseID, tableID string, opts nocodb.ListOptions) (nocodb.RecordList, error)
	FollowRecords(ctx context.Context, next string) (nocodb.RecordList, error)
}

// Options selects what to export.
type Options struct {
	BaseID  string
	TableID string

	// Filter narrows the export; nil exports the whole table.
	Filter where.Filter

	Fields   []string
	PageSize int
}

// Stats summarizes one export run.
type Stats struct {
	// BatchID tags every run; sinks may persist it alongside records.
	BatchID  uuid.UUID
	Exported int
	Dropped  int
}

type Exporter struct {
	lister    RecordLister
	sink      Sink
	transform *Transform // nil means records pass through untouched
	logger    *slog.Logger
}

func New(lister RecordLister, sink Sink, transform *Transform, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Exporter{
		lister:    lister,
		sink:      sink,
		transform: transform,
		logger:    logger,
	}
}

// Run pages through the table, transforms and writes each page, and
// returns counts. The sink is not closed here; the caller owns it.
func (e *Exporter) Run(ctx context.Context, opts Options) (Stats, error) {
	stats := Stats{BatchID: uuid.New()}
	logger := e.logger.With("batch_id", stats.BatchID, "base", opts.BaseID, "table", opts.TableID)

	page, err := e.lister.ListRecords(ctx, opts.BaseID, opts.TableID, nocodb.ListOptions{
		Filter:   opts.Filter,
		Fields:   opts.Fields,
		PageSize: opts.PageSize,
	})
	if err != nil {
		return stats, err
	}

	for {
		kept, dropped, err := e.transformPage(page.Records)
		if err != nil {
			return stats, err
		}
		stats.Dropped += dropped

		if len(kept) > 0 {
			if err := e.sink.Write(ctx, stats.BatchID, kept); err != nil {
				return stats, err
			}
			stats.Exported += len(kept)
		}

		logger.Debug("exported page", "records", len(kept), "dropped", dropped)

		if page.Next == "" {
			break
		}

		page, err = e.lister.FollowRecords(ctx, page.Next)
		if err != nil {
			return stats, err
		}
	}

	logger.Info("export finished", "exported", stats.Exported, "dropped", stats.Dropped)

	return stats, nil
}

func (e *Exporter) transformPage(records []nocodb.Record) ([]nocodb.Record, int, error) {
	if e.transform == nil {
		return records, 0, nil
	}

	kept := make([]nocodb.Record, 0, len(records))
	dropped := 0
	for _, r := range records {
		out, keep, err := e.transform.Apply(r)
		if err != nil {
			return nil, 0, err
		}
		if !keep {
			dropped++
			continue
		}
		kept = append(kept, out)
	}

	return kept, dropped, nil
}
