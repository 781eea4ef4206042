package nocodb

import "strings"

// API path prefixes. The v3 API addresses everything by baseId/tableId;
// the v2 meta prefix survives only for the bases list, which self-hosted
// servers do not expose under v3.
const (
	v2MetaPrefix = "api/v2/meta"
	v3DataPrefix = "api/v3/data"
	v3MetaPrefix = "api/v3/meta"
)

// URIBuilder builds absolute endpoint URIs for one server instance.
type URIBuilder struct {
	baseURL string
}

func NewURIBuilder(baseURL string) URIBuilder {
	return URIBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

func (u URIBuilder) join(parts ...string) string {
	return u.baseURL + "/" + strings.Join(parts, "/")
}

// RecordsURI addresses GET/POST/PATCH/DELETE {base}/api/v3/data/{baseId}/{tableId}/records.
func (u URIBuilder) RecordsURI(baseID, tableID string) string {
	return u.join(v3DataPrefix, baseID, tableID, "records")
}

// RecordURI addresses a single record.
func (u URIBuilder) RecordURI(baseID, tableID, recordID string) string {
	return u.join(v3DataPrefix, baseID, tableID, "records", recordID)
}

// RecordsCountURI addresses GET {base}/api/v3/data/{baseId}/{tableId}/count.
func (u URIBuilder) RecordsCountURI(baseID, tableID string) string {
	return u.join(v3DataPrefix, baseID, tableID, "count")
}

// LinkedRecordsURI addresses the linked-records listing for one link field
// of one record.
func (u URIBuilder) LinkedRecordsURI(baseID, tableID, linkFieldID, recordID string) string {
	return u.join(v3DataPrefix, baseID, tableID, "links", linkFieldID, recordID)
}

// BasesURI addresses the v3 bases list. With a workspace id it uses the
// workspace-scoped form; without one it uses the flat form.
func (u URIBuilder) BasesURI(workspaceID string) string {
	if workspaceID == "" {
		return u.join(v3MetaPrefix, "bases")
	}
	return u.join(v3MetaPrefix, "workspaces", workspaceID, "bases")
}

// BasesURIV2 addresses the v2 bases list used by self-hosted servers.
func (u URIBuilder) BasesURIV2() string {
	return u.join(v2MetaPrefix, "bases")
}

func (u URIBuilder) TablesURI(baseID string) string {
	return u.join(v3MetaPrefix, "bases", baseID, "tables")
}

func (u URIBuilder) TableURI(baseID, tableID string) string {
	return u.join(v3MetaPrefix, "bases", baseID, "tables", tableID)
}

func (u URIBuilder) TokensURI() string {
	return u.join(v3MetaPrefix, "tokens")
}

func (u URIBuilder) TokenURI(tokenID string) string {
	return u.join(v3MetaPrefix, "tokens", tokenID)
}
