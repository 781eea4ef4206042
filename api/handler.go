package api

import (
	"net/http"
	"strings"

	"github.com/sgoldberg/nocogo/nocodb"
	"github.com/sgoldberg/nocogo/where"
	"github.com/sgoldberg/nocogo/where/parser"
)

// listRecordsHandler proxies a records listing to the upstream server.
// The `where` parameter is parsed before anything is forwarded, so a
// malformed filter is rejected here with field-level detail instead of
// surfacing as an upstream 4xx.
func (s *server) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableID")
	query := r.URL.Query()

	opts := nocodb.ListOptions{
		ViewID: query.Get("viewId"),
	}

	filter, err := s.parseWhereParam(query.Get("where"))
	if s.returnOnError(w, r, err) {
		return
	}
	opts.Filter = filter

	if fields := query.Get("fields"); fields != "" {
		opts.Fields = strings.Split(fields, ",")
	}
	if sort := query.Get("sort"); sort != "" {
		opts.Sort = strings.Split(sort, ",")
	}

	opts.Page, err = positiveIntQueryParam(r, "page")
	if s.returnOnError(w, r, err) {
		return
	}
	opts.PageSize, err = positiveIntQueryParam(r, "pageSize")
	if s.returnOnError(w, r, err) {
		return
	}

	page, err := s.client().ListRecords(r.Context(), s.cfg.BaseID, tableID, opts)
	if s.returnOnError(w, r, err) {
		return
	}

	res := apiResponse{
		Success: true,
		Data:    page.Records,
	}
	if page.Next != "" {
		res.Metadata = map[string]any{"pagination": map[string]any{
			"next": page.Next,
		}}
	}

	s.writeJson(w, http.StatusOK, res, nil) //nolint:errcheck
}

func (s *server) countRecordsHandler(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("tableID")

	filter, err := s.parseWhereParam(r.URL.Query().Get("where"))
	if s.returnOnError(w, r, err) {
		return
	}

	count, err := s.client().CountRecords(r.Context(), s.cfg.BaseID, tableID, filter)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    map[string]any{"count": count},
	}, nil)
}

// parseWhereParam validates a raw `where` string. An absent parameter
// means no filter.
func (s *server) parseWhereParam(raw string) (where.Filter, error) {
	if raw == "" {
		return nil, nil
	}
	return parser.Parse(raw)
}
