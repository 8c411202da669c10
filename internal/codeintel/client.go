package codeintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pders01/srcview/internal/debuglog"
)

const (
	userAgent      = "srcview/1.0 (code intelligence client)"
	defaultTimeout = 30 * time.Second
	graphQLPath    = "/.api/graphql"
)

const indexFields = `
	id
	inputCommit
	state
	queuedAt
	startedAt
	finishedAt
	placeInQueue
	failure
	projectRoot {
		path
		commit {
			oid
			abbreviatedOID
			url
			repository { name url }
		}
	}`

var indexQuery = `query LsifIndex($id: ID!) {
	node(id: $id) {
		... on LSIFIndex {` + indexFields + `
		}
	}
}`

const deleteMutation = `mutation DeleteLsifIndex($id: ID!) {
	deleteLSIFIndex(id: $id) { alwaysNil }
}`

var indexesQuery = `query LsifIndexes($state: LSIFIndexState, $query: String, $first: Int) {
	lsifIndexes(state: $state, query: $query, first: $first) {
		nodes {` + indexFields + `
		}
		totalCount
	}
	queued: lsifIndexes(state: QUEUED) { totalCount }
	processing: lsifIndexes(state: PROCESSING) { totalCount }
	completed: lsifIndexes(state: COMPLETED) { totalCount }
	errored: lsifIndexes(state: ERRORED) { totalCount }
}`

// Client talks to the service's GraphQL endpoint.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func NewClient(endpoint, token string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the base URL the client was built with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+graphQLPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		debuglog.Warnf("graphql request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// Index fetches a single index record. A missing record yields ErrNotFound.
func (c *Client) Index(ctx context.Context, id string) (*Index, error) {
	var data struct {
		Node *Index `json:"node"`
	}
	if err := c.do(ctx, indexQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, fmt.Errorf("fetching index %s: %w", id, err)
	}
	if data.Node == nil {
		return nil, fmt.Errorf("fetching index %s: %w", id, ErrNotFound)
	}
	debuglog.Debugf("fetched index %s in state %s", id, data.Node.State)
	return data.Node, nil
}

// DeleteIndex removes an index record.
func (c *Client) DeleteIndex(ctx context.Context, id string) error {
	if err := c.do(ctx, deleteMutation, map[string]any{"id": id}, nil); err != nil {
		return fmt.Errorf("deleting index %s: %w", id, err)
	}
	debuglog.Infof("deleted index %s", id)
	return nil
}

// Indexes lists index records matching opts along with per-state totals.
func (c *Client) Indexes(ctx context.Context, opts ListOptions) (*IndexList, error) {
	vars := map[string]any{}
	if opts.State != nil {
		vars["state"] = opts.State.String()
	}
	if opts.Query != "" {
		vars["query"] = opts.Query
	}
	if opts.First > 0 {
		vars["first"] = opts.First
	}

	type total struct {
		TotalCount int `json:"totalCount"`
	}
	var data struct {
		LsifIndexes struct {
			Nodes      []Index `json:"nodes"`
			TotalCount int     `json:"totalCount"`
		} `json:"lsifIndexes"`
		Queued     total `json:"queued"`
		Processing total `json:"processing"`
		Completed  total `json:"completed"`
		Errored    total `json:"errored"`
	}
	if err := c.do(ctx, indexesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	return &IndexList{
		Indexes:    data.LsifIndexes.Nodes,
		TotalCount: data.LsifIndexes.TotalCount,
		Counts: map[State]int{
			StateQueued:     data.Queued.TotalCount,
			StateProcessing: data.Processing.TotalCount,
			StateCompleted:  data.Completed.TotalCount,
			StateErrored:    data.Errored.TotalCount,
		},
	}, nil
}
