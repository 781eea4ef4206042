package nocodb

// Flatten converts a v3 record to the flat v1-style shape: field values at
// the top level plus an `Id` key. Useful for export formats and for code
// written against the older API.
func Flatten(r Record) map[string]any {
	flat := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		flat[k] = v
	}

	if r.ID != nil {
		flat["Id"] = r.ID
	}

	return flat
}

// PageInfo is the v1-style pagination block.
type PageInfo struct {
	Next string `json:"next,omitempty"`
}

// LegacyList is the v1-style list envelope.
type LegacyList struct {
	List     []map[string]any `json:"list"`
	PageInfo PageInfo         `json:"pageInfo"`
}

// FlattenList converts a v3 list response to the v1-style envelope.
func FlattenList(l RecordList) LegacyList {
	out := LegacyList{
		List:     make([]map[string]any, len(l.Records)),
		PageInfo: PageInfo{Next: l.Next},
	}

	for i, r := range l.Records {
		out.List[i] = Flatten(r)
	}

	return out
}
