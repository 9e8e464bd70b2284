package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lamvault/native/vault"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Vault-specific error codes. Each rejection kind maps to its own code so
// clients can distinguish outcomes without parsing messages.
const (
	codeVaultInvalidParams = -32031
	codeVaultNotFound      = -32032
	codeVaultForbidden     = -32033
	codeVaultConflict      = -32034
	codeVaultPolicy        = -32035
	codeVaultFunds         = -32036
)

// Server exposes the vault operations over JSON-RPC. Operations run under a
// single mutex: the node applies one transaction at a time, which is the
// serialization the engine's atomicity contract assumes.
type Server struct {
	engine *vault.Engine
	logger *slog.Logger

	mu sync.Mutex
}

func NewServer(engine *vault.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// Router wires the RPC endpoint together with health and metrics handlers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version")
		return
	}

	start := time.Now()
	requestsTotal.WithLabelValues(req.Method).Inc()

	switch req.Method {
	case "vault_initialize":
		s.handleVaultInitialize(w, &req)
	case "vault_deposit":
		s.handleVaultDeposit(w, &req)
	case "vault_withdraw":
		s.handleVaultWithdraw(w, &req)
	case "vault_close":
		s.handleVaultClose(w, &req)
	case "vault_get":
		s.handleVaultGet(w, &req)
	default:
		errorsTotal.WithLabelValues(req.Method, "method_not_found").Inc()
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found")
		return
	}

	requestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
}
