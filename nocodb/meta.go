package nocodb

import (
	"context"
	"net/http"
)

type Base struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

type Table struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type TokenInfo struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	Description string `json:"description"`
}

// ListBases lists bases through the v3 meta API. workspaceID may be empty
// on servers without workspaces.
func (c *Client) ListBases(ctx context.Context, workspaceID string) ([]Base, error) {
	var out struct {
		Bases []Base `json:"bases"`
	}
	err := c.do(ctx, http.MethodGet, c.uris.BasesURI(workspaceID), nil, nil, &out)
	return out.Bases, err
}

// ListBasesV2 lists bases through the v2 meta API, the only form exposed
// by self-hosted community servers.
func (c *Client) ListBasesV2(ctx context.Context) ([]Base, error) {
	var out struct {
		List []Base `json:"list"`
	}
	err := c.do(ctx, http.MethodGet, c.uris.BasesURIV2(), nil, nil, &out)
	return out.List, err
}

func (c *Client) ListTables(ctx context.Context, baseID string) ([]Table, error) {
	var out struct {
		Tables []Table `json:"tables"`
	}
	err := c.do(ctx, http.MethodGet, c.uris.TablesURI(baseID), nil, nil, &out)
	return out.Tables, err
}

func (c *Client) GetTable(ctx context.Context, baseID, tableID string) (Table, error) {
	var out Table
	err := c.do(ctx, http.MethodGet, c.uris.TableURI(baseID, tableID), nil, nil, &out)
	return out, err
}

// CreateTable creates a table from a v3 table definition body, e.g.
// {"title": ..., "fields": [...]}.
func (c *Client) CreateTable(ctx context.Context, baseID string, body map[string]any) (Table, error) {
	var out Table
	err := c.do(ctx, http.MethodPost, c.uris.TablesURI(baseID), nil, body, &out)
	return out, err
}

func (c *Client) UpdateTable(ctx context.Context, baseID, tableID string, body map[string]any) (Table, error) {
	var out Table
	err := c.do(ctx, http.MethodPatch, c.uris.TableURI(baseID, tableID), nil, body, &out)
	return out, err
}

func (c *Client) DeleteTable(ctx context.Context, baseID, tableID string) error {
	return c.do(ctx, http.MethodDelete, c.uris.TableURI(baseID, tableID), nil, nil, nil)
}

func (c *Client) ListTokens(ctx context.Context) ([]TokenInfo, error) {
	var out struct {
		Tokens []TokenInfo `json:"tokens"`
	}
	err := c.do(ctx, http.MethodGet, c.uris.TokensURI(), nil, nil, &out)
	return out.Tokens, err
}

func (c *Client) CreateToken(ctx context.Context, description string) (TokenInfo, error) {
	var out TokenInfo
	body := map[string]any{"description": description}
	err := c.do(ctx, http.MethodPost, c.uris.TokensURI(), nil, body, &out)
	return out, err
}

func (c *Client) DeleteToken(ctx context.Context, tokenID string) error {
	return c.do(ctx, http.MethodDelete, c.uris.TokenURI(tokenID), nil, nil, nil)
}
