package nocodb

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sgoldberg/nocogo/where"
)

// Record is a single v3 API record: an id plus a field map. The id is
// `any` because servers return numeric ids for classic tables and string
// ids elsewhere.
type Record struct {
	ID     any            `json:"id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// RecordList is the v3 list envelope. Next carries the pagination cursor
// URL when more pages exist.
type RecordList struct {
	Records []Record `json:"records"`
	Next    string   `json:"next,omitempty"`
}

// ListOptions narrows a records listing. The zero value lists everything
// with server defaults.
type ListOptions struct {
	// Filter renders to the `where` query parameter. The server treats the
	// rendered string as opaque input to its own parser.
	Filter where.Filter

	Fields   []string
	Sort     []string
	Page     int
	PageSize int
	ViewID   string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}

	if o.Filter != nil {
		q.Set("where", o.Filter.Where())
	}
	if len(o.Fields) > 0 {
		q.Set("fields", strings.Join(o.Fields, ","))
	}
	if len(o.Sort) > 0 {
		q.Set("sort", strings.Join(o.Sort, ","))
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.ViewID != "" {
		q.Set("viewId", o.ViewID)
	}

	return q
}

// ListRecords fetches one page of records.
func (c *Client) ListRecords(ctx context.Context, baseID, tableID string, opts ListOptions) (RecordList, error) {
	var out RecordList
	err := c.do(ctx, http.MethodGet, c.uris.RecordsURI(baseID, tableID), opts.query(), nil, &out)
	return out, err
}

// FollowRecords fetches the page addressed by a `next` cursor from a
// previous listing. Cursors are returned as absolute URLs; a relative path
// is resolved against the client's base URL.
func (c *Client) FollowRecords(ctx context.Context, next string) (RecordList, error) {
	uri := next
	if !strings.HasPrefix(next, "http://") && !strings.HasPrefix(next, "https://") {
		uri = c.uris.join(strings.TrimLeft(next, "/"))
	}

	var out RecordList
	err := c.do(ctx, http.MethodGet, uri, nil, nil, &out)
	return out, err
}

// ListAllRecords pages through an entire listing by following cursors.
func (c *Client) ListAllRecords(ctx context.Context, baseID, tableID string, opts ListOptions) ([]Record, error) {
	page, err := c.ListRecords(ctx, baseID, tableID, opts)
	if err != nil {
		return nil, err
	}

	records := page.Records
	for page.Next != "" {
		page, err = c.FollowRecords(ctx, page.Next)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
	}

	return records, nil
}

// GetRecord fetches a single record by id.
func (c *Client) GetRecord(ctx context.Context, baseID, tableID, recordID string) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodGet, c.uris.RecordURI(baseID, tableID, recordID), nil, nil, &out)
	return out, err
}

// CreateRecords inserts records and returns them with server-assigned ids.
func (c *Client) CreateRecords(ctx context.Context, baseID, tableID string, records ...Record) ([]Record, error) {
	var out RecordList
	err := c.do(ctx, http.MethodPost, c.uris.RecordsURI(baseID, tableID), nil, records, &out)
	return out.Records, err
}

// UpdateRecords patches records by id and returns the updated rows.
func (c *Client) UpdateRecords(ctx context.Context, baseID, tableID string, records ...Record) ([]Record, error) {
	var out RecordList
	err := c.do(ctx, http.MethodPatch, c.uris.RecordsURI(baseID, tableID), nil, records, &out)
	return out.Records, err
}

// DeleteRecords removes records by id and returns the deleted ids.
func (c *Client) DeleteRecords(ctx context.Context, baseID, tableID string, recordIDs ...string) ([]Record, error) {
	body := make([]Record, len(recordIDs))
	for i, id := range recordIDs {
		body[i] = Record{ID: id}
	}

	var out RecordList
	err := c.do(ctx, http.MethodDelete, c.uris.RecordsURI(baseID, tableID), nil, body, &out)
	return out.Records, err
}

// CountRecords returns the number of records matching filter. A nil filter
// counts the whole table.
func (c *Client) CountRecords(ctx context.Context, baseID, tableID string, filter where.Filter) (int64, error) {
	q := url.Values{}
	if filter != nil {
		q.Set("where", filter.Where())
	}

	var out struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, c.uris.RecordsCountURI(baseID, tableID), q, nil, &out)
	return out.Count, err
}

// ListLinkedRecords lists the records linked through one link field of one
// record.
func (c *Client) ListLinkedRecords(ctx context.Context, baseID, tableID, linkFieldID, recordID string, opts ListOptions) (RecordList, error) {
	var out RecordList
	err := c.do(ctx, http.MethodGet, c.uris.LinkedRecordsURI(baseID, tableID, linkFieldID, recordID), opts.query(), nil, &out)
	return out, err
}
