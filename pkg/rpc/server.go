// Package rpc is a small JSON-over-TCP request/response protocol used to
// expose the synapse call surface to callers that cannot link the module.
//
// Each connection carries newline-delimited JSON: a Request per line from
// the client, answered in order by one Response per line.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// HandlerFunc processes the raw params of one call.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Request is the wire format of a call.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the wire format of a reply. Exactly one of Data and Error is
// set.
type Response struct {
	ID    int64           `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type Server struct {
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
	wg       sync.WaitGroup
	conns    map[net.Conn]struct{}
	connsMu  sync.Mutex
	logger   *slog.Logger
}

func NewServer() *Server {
	return &Server{
		handlers: make(map[string]HandlerFunc),
		conns:    make(map[net.Conn]struct{}),
		logger:   slog.Default().With("component", "rpc-server"),
	}
}

// Register adds a handler for method. Names follow "Service.Method".
func (s *Server) Register(method string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
}

// Methods returns the number of registered methods.
func (s *Server) Methods() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes the
// listener and every open connection and waits for their handlers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("rpc server listening", "addr", ln.Addr().String())
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.connsMu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.connsMu.Unlock()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				s.logger.Info("rpc server stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			s.logger.Error("accept error", "error", err)
			continue
		}
		s.track(conn, true)
		if ctx.Err() != nil {
			_ = conn.Close()
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.track(conn, false)
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)
	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			return
		}
		resp := s.dispatch(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Warn("write error", "method", req.Method, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		resp.Error = fmt.Sprintf("unknown method: %s", req.Method)
		return resp
	}

	data, err := handler(ctx, req.Params)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encoding result failed", "method", req.Method, "error", err)
		resp.Error = "internal error"
		return resp
	}
	resp.Data = raw
	return resp
}

// Decode unmarshals params into T. An absent params field decodes to the
// zero value.
func Decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, fmt.Errorf("decoding params: %w", err)
	}
	return v, nil
}
