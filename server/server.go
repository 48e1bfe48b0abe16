package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/jonwraymond/trendgate/auth"
	"github.com/jonwraymond/trendgate/dataset"
	"github.com/jonwraymond/trendgate/query"
)

// JSON-RPC error codes. The auth codes deliberately mirror the HTTP
// statuses so clients see one number in both places.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
	codeUnauthorized   = 401
	codeForbidden      = 403
)

const (
	serverName    = "trendgate"
	serverVersion = "1.0.0"
	protocolRev   = "2025-06-18"
)

// Options configures a Server. Gate, Loader, and Engine are required;
// the rest default to inert implementations.
type Options struct {
	Gate    *auth.Gate
	Loader  *dataset.Loader
	Engine  *query.Engine
	Vector  VectorSearch
	Logger  *zap.Logger
	Metrics *Metrics
}

// Server dispatches JSON-RPC tool calls over the dataset and document
// backends. Construct with New and mount Handler on an http.Server.
type Server struct {
	gate    *auth.Gate
	loader  *dataset.Loader
	engine  *query.Engine
	vector  VectorSearch
	log     *zap.Logger
	metrics *Metrics
}

// New creates a Server from the given options.
func New(opts Options) *Server {
	if opts.Vector == nil {
		opts.Vector = NoopVectorSearch{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	return &Server{
		gate:    opts.Gate,
		loader:  opts.Loader,
		engine:  opts.Engine,
		vector:  opts.Vector,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

// Handler returns the server's full HTTP surface: the JSON-RPC
// endpoint at /mcp plus health and metrics endpoints. The RPC
// endpoint is wrapped in panic recovery and OpenTelemetry tracing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", otelhttp.NewHandler(s.recovered(http.HandlerFunc(s.handleRPC)), "mcp"))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// recovered converts a panicking request into an internal-error
// envelope. A single bad request must never take the process down.
func (s *Server) recovered(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("request panic recovered", zap.Any("panic", rec))
				writeRPC(w, http.StatusOK, rpcResponse{
					JSONRPC: "2.0",
					ID:      json.RawMessage("null"),
					Error:   &rpcError{Code: codeInternalError, Message: "internal error"},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID))

	identity, err := s.gate.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		s.writeAuthFailure(w, log, err)
		return
	}
	ctx := auth.WithIdentity(r.Context(), identity)

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPC(w, http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()},
		})
		return
	}
	if req.ID == nil {
		req.ID = json.RawMessage("null")
	}

	started := time.Now()
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = s.initializeResult()
	case "notifications/initialized":
		// Notification, no response body expected.
		w.WriteHeader(http.StatusAccepted)
		return
	case "tools/list":
		resp.Result = map[string]any{"tools": toolDescriptors()}
	case "tools/call":
		result, rpcErr := s.callTool(ctx, log, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	case "ping":
		resp.Result = map[string]any{}
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}

	s.metrics.observeRPC(req.Method, time.Since(started).Seconds())
	log.Debug("rpc handled",
		zap.String("method", req.Method),
		zap.String("subject", identity.Subject),
		zap.Duration("elapsed", time.Since(started)))
	writeRPC(w, http.StatusOK, resp)
}

func (s *Server) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": protocolRev,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": serverVersion,
		},
	}
}

// writeAuthFailure maps a gate failure onto the wire: the HTTP status
// and the JSON-RPC error code carry the same number, and the id is
// null because the request body was never read.
func (s *Server) writeAuthFailure(w http.ResponseWriter, log *zap.Logger, err error) {
	failure, ok := auth.AsFailure(err)
	if !ok {
		log.Error("authentication failed with unexpected error", zap.Error(err))
		writeRPC(w, http.StatusUnauthorized, rpcResponse{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeUnauthorized, Message: "authentication failed"},
		})
		return
	}

	s.metrics.observeAuthFailure(failure.Kind.String())
	log.Warn("request rejected",
		zap.String("kind", failure.Kind.String()),
		zap.Strings("missing_scopes", failure.MissingScopes))

	status := failure.StatusCode()
	code := codeUnauthorized
	if status == http.StatusForbidden {
		code = codeForbidden
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	writeRPC(w, status, rpcResponse{
		JSONRPC: "2.0",
		ID:      json.RawMessage("null"),
		Error:   &rpcError{Code: code, Message: failure.Error()},
	})
}

func writeRPC(w http.ResponseWriter, status int, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
