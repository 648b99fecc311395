package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the consumed surface of the external document-processing
// service. The sync executor depends on this interface so tests can
// substitute a fake.
type Client interface {
	ListDocuments(ctx context.Context, q DocumentQuery) (*DocumentPage, error)
	GetDocument(ctx context.Context, identifier string) (*RemoteDocument, error)
	ListWorkspaces(ctx context.Context, organization string) ([]RemoteWorkspace, error)
	ListCollections(ctx context.Context, workspace string) ([]RemoteCollection, error)
}

// Credentials supplies the bridge endpoint and API key. Implemented by the
// settings service so values edited at runtime take effect without a
// restart.
type Credentials interface {
	BridgeBaseURL() string
	BridgeAPIKey() string
	BridgeOrganization() string
}

type HTTPClient struct {
	creds      Credentials
	httpClient *http.Client
}

func NewHTTPClient(creds Credentials) Client {
	return &HTTPClient{
		creds: creds,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *HTTPClient) ListDocuments(ctx context.Context, q DocumentQuery) (*DocumentPage, error) {
	params := url.Values{}
	if q.Collection != "" {
		params.Set("collection", q.Collection)
	} else if q.Workspace != "" {
		params.Set("workspace", q.Workspace)
	}
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Count {
		params.Set("count", "true")
	}
	if q.IncludeData {
		params.Set("include_data", "true")
	}

	var page DocumentPage
	if err := c.getJSON(ctx, "/documents?"+params.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) GetDocument(ctx context.Context, identifier string) (*RemoteDocument, error) {
	var doc RemoteDocument
	if err := c.getJSON(ctx, "/documents/"+url.PathEscape(identifier), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) ListWorkspaces(ctx context.Context, organization string) ([]RemoteWorkspace, error) {
	params := url.Values{}
	if organization != "" {
		params.Set("organization", organization)
	}

	var workspaces []RemoteWorkspace
	if err := c.getJSON(ctx, "/workspaces?"+params.Encode(), &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

func (c *HTTPClient) ListCollections(ctx context.Context, workspace string) ([]RemoteCollection, error) {
	params := url.Values{}
	if workspace != "" {
		params.Set("workspace", workspace)
	}

	var collections []RemoteCollection
	if err := c.getJSON(ctx, "/collections?"+params.Encode(), &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	base := c.creds.BridgeBaseURL()
	if base == "" {
		return fmt.Errorf("bridge base URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create bridge request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.creds.BridgeAPIKey())
	req.Header.Set("User-Agent", "Go-DocBridge")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bridge returned %d for %s: %s", resp.StatusCode, path, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bridge response: %w", err)
	}
	return nil
}
