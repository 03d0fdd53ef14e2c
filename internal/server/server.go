// Package server hosts the shell behind a Unix socket. Every request is
// applied on a single event-loop goroutine in arrival order.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/aether-shell/aether/internal/logging"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/shell"
)

// subscriberBuffer is how many frames a slow watcher may lag before frames are dropped
const subscriberBuffer = 64

// Server serves shell operations over newline-delimited JSON envelopes
type Server struct {
	shell      *shell.Shell
	socketPath string
	ops        chan func()

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup

	subMu       sync.Mutex
	subscribers map[chan *models.MessageEnvelope]struct{}
}

// New creates a server for sh listening on socketPath
func New(sh *shell.Shell, socketPath string) *Server {
	s := &Server{
		shell:       sh,
		socketPath:  socketPath,
		ops:         make(chan func()),
		subscribers: make(map[chan *models.MessageEnvelope]struct{}),
	}
	sh.Subscribe(s.broadcast)
	return s
}

// SocketPath returns the path the server listens on
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve listens on the socket until the context is cancelled. It returns
// once every connection has been closed.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}
	logging.Info().Str("socket", s.socketPath).Msg("server listening")
	defer s.conns.Wait()
	defer s.cleanup()

	go s.loop(ctx)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			logging.Error().Err(err).Msg("accept error")
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// Do runs fn on the event loop and waits for it to finish
func (s *Server) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.ops:
			fn()
		}
	}
}

func (s *Server) accept(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return nil, context.Canceled
	}
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Server) prepareSocket() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Server) cleanup() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("remove socket")
	}
}

// connWriter serializes writes from the request path and the event pump
type connWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *connWriter) send(env *models.MessageEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.conn.Write(data)
	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	// Unblock the read below on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	w := &connWriter{conn: conn}
	reader := bufio.NewReader(conn)
	var events chan *models.MessageEnvelope
	defer func() {
		if events != nil {
			s.unsubscribe(events)
		}
	}()

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var env models.MessageEnvelope
		if err := json.Unmarshal(line, &env); err != nil || env.Type != models.TypeRequest || env.Request == nil {
			w.send(models.NewErrorResponse("", models.CodeInvalidRequest, "invalid request envelope"))
			continue
		}
		req := env.Request

		if req.Method == models.MethodSubscribe {
			// The response goes out before any frame so readers can skip ahead
			if err := w.send(models.NewResponse(req.ID, map[string]interface{}{"subscribed": true})); err != nil {
				return
			}
			if events == nil {
				events = s.subscribe(ctx)
				go pump(w, events)
			}
			continue
		}

		var (
			result map[string]interface{}
			rpcErr *models.ErrorInfo
		)
		if err := s.Do(ctx, func() { result, rpcErr = s.dispatch(req) }); err != nil {
			return
		}

		if rpcErr != nil {
			logging.Warn().Str("method", req.Method).Str("error", rpcErr.Message).Msg("request failed")
			w.send(&models.MessageEnvelope{
				Type:     models.TypeResponse,
				Response: &models.Response{ID: req.ID, Error: rpcErr},
			})
			continue
		}
		if err := w.send(models.NewResponse(req.ID, result)); err != nil {
			return
		}
	}
}

func pump(w *connWriter, events <-chan *models.MessageEnvelope) {
	for env := range events {
		if err := w.send(env); err != nil {
			return
		}
	}
}

func (s *Server) subscribe(ctx context.Context) chan *models.MessageEnvelope {
	ch := make(chan *models.MessageEnvelope, subscriberBuffer)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	// Start the stream with the current desktop
	go s.Do(ctx, func() {
		s.sendTo(ch, s.frameEvent(s.shell.Frame()))
	})
	return ch
}

func (s *Server) unsubscribe(ch chan *models.MessageEnvelope) {
	s.subMu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

// broadcast runs on the event loop whenever the shell changes
func (s *Server) broadcast(frame models.Frame) {
	env := s.frameEvent(frame)
	if env == nil {
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- env:
		default:
			logging.Warn().Msg("subscriber lagging, frame dropped")
		}
	}
}

func (s *Server) sendTo(ch chan *models.MessageEnvelope, env *models.MessageEnvelope) {
	if env == nil {
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	select {
	case ch <- env:
	default:
	}
}

func (s *Server) frameEvent(frame models.Frame) *models.MessageEnvelope {
	data, err := models.ToMap(frame)
	if err != nil {
		logging.Error().Err(err).Msg("encode frame")
		return nil
	}
	return models.NewEvent(models.EventFrame, data)
}
