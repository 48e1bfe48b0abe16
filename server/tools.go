package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonwraymond/trendgate/query"
)

// queryError marks a malformed filter value. It surfaces as a
// tool-level error payload, not a transport failure.
type queryError struct {
	msg string
}

func (e *queryError) Error() string { return e.msg }

type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func toolDescriptors() []toolDescriptor {
	return []toolDescriptor{
		{
			Name:        "search",
			Description: "Search the travel-industry document store. Returns ranked matches with id, title, snippet, and url.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Natural-language search query."},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "fetch",
			Description: "Fetch a full travel-industry document by id from the document store.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "description": "Opaque document id from a search result."},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "airfare_trend_insights",
			Description: "Surface US airfare route-level trend snapshots with airline-aware filters.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"snapshot_date":       map[string]any{"type": "string", "description": "Snapshot date to match, e.g. 2025-10-06 or 2024-W34."},
					"route_contains":      map[string]any{"type": "string", "description": "Case-insensitive substring match over the route column."},
					"origin_airport":      map[string]any{"type": "string", "description": "Exact origin airport code parsed from each route."},
					"destination_airport": map[string]any{"type": "string", "description": "Exact destination airport code parsed from each route."},
					"airline_contains":    map[string]any{"type": "string", "description": "Substring match over the airline column."},
					"season_contains":     map[string]any{"type": "string", "description": "Substring match over the season column."},
					"notable_contains":    map[string]any{"type": "string", "description": "Substring match over the notable event text."},
					"limit":               map[string]any{"type": "integer", "description": "Maximum rows returned (1-200, default 25)."},
				},
			},
		},
	}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// callTool dispatches a tools/call request. Transport-shape problems
// return a JSON-RPC error; failures inside a tool return a result
// payload with isError set.
func (s *Server) callTool(ctx context.Context, log *zap.Logger, params json.RawMessage) (any, *rpcError) {
	var call toolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	if call.Name == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params: missing tool name"}
	}

	var (
		payload any
		err     error
	)
	switch call.Name {
	case "search":
		payload, err = s.toolSearch(ctx, call.Arguments)
	case "fetch":
		payload, err = s.toolFetch(ctx, call.Arguments)
	case "airfare_trend_insights":
		payload, err = s.toolTrendInsights(ctx, log, call.Arguments)
	default:
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + call.Name}
	}

	if err != nil {
		var qerr *queryError
		if ctx.Err() == nil && errors.As(err, &qerr) {
			s.metrics.observeToolCall(call.Name, "error")
			log.Warn("tool rejected arguments", zap.String("tool", call.Name), zap.Error(err))
			return toolErrorResult(qerr.msg), nil
		}
		s.metrics.observeToolCall(call.Name, "failure")
		log.Error("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return nil, &rpcError{Code: codeInternalError, Message: "internal error"}
	}

	s.metrics.observeToolCall(call.Name, "ok")
	return toolResult(payload)
}

func toolResult(payload any) (any, *rpcError) {
	text, err := json.Marshal(payload)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: "internal error"}
	}
	return map[string]any{
		"content":           []map[string]any{{"type": "text", "text": string(text)}},
		"structuredContent": payload,
	}, nil
}

func toolErrorResult(message string) any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": message}},
		"isError": true,
	}
}

func (s *Server) toolSearch(ctx context.Context, args map[string]any) (any, error) {
	q := stringArg(args, "query")
	if strings.TrimSpace(q) == "" {
		return map[string]any{"results": []SearchHit{}}, nil
	}
	hits, err := s.vector.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return map[string]any{"results": hits}, nil
}

func (s *Server) toolFetch(ctx context.Context, args map[string]any) (any, error) {
	id := stringArg(args, "id")
	if strings.TrimSpace(id) == "" {
		return nil, &queryError{msg: "fetch requires a non-empty id"}
	}
	doc, err := s.vector.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("vector fetch: %w", err)
	}
	return doc, nil
}

func (s *Server) toolTrendInsights(ctx context.Context, log *zap.Logger, args map[string]any) (any, error) {
	criteria, err := criteriaFromArgs(args)
	if err != nil {
		return nil, err
	}

	rows, files, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	log.Debug("dataset loaded", zap.Int("rows", len(rows)), zap.Int("files", len(files)))

	return s.engine.Query(rows, files, s.loader.Dir(), criteria), nil
}

// criteriaFromArgs builds query criteria from raw tool arguments. A
// limit that is present but not numeric is the caller's mistake and
// comes back as a tool-level error.
func criteriaFromArgs(args map[string]any) (query.Criteria, error) {
	criteria := query.Criteria{
		SnapshotDate:       stringArg(args, "snapshot_date"),
		RouteContains:      stringArg(args, "route_contains"),
		OriginAirport:      stringArg(args, "origin_airport"),
		DestinationAirport: stringArg(args, "destination_airport"),
		AirlineContains:    stringArg(args, "airline_contains"),
		SeasonContains:     stringArg(args, "season_contains"),
		NotableContains:    stringArg(args, "notable_contains"),
	}

	raw, ok := args["limit"]
	if !ok || raw == nil {
		return criteria, nil
	}
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return criteria, &queryError{msg: "limit must be an integer"}
		}
		limit := int(v)
		criteria.Limit = &limit
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return criteria, &queryError{msg: fmt.Sprintf("limit must be an integer, got %q", v.String())}
		}
		limit := int(n)
		criteria.Limit = &limit
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return criteria, &queryError{msg: fmt.Sprintf("limit must be an integer, got %q", v)}
		}
		criteria.Limit = &n
	default:
		return criteria, &queryError{msg: fmt.Sprintf("limit must be an integer, got %T", raw)}
	}
	return criteria, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
