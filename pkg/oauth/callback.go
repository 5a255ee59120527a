package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const callbackPath = "/callback"

const callbackPage = `<html><body><h1>ytfeed is authorized</h1><p>You can close this window.</p></body></html>`

// CallbackServer receives the redirect at the end of the browser flow.
type CallbackServer struct {
	port int

	mu       sync.Mutex
	listener net.Listener
}

// NewCallbackServer creates a server for localhost:port. Port 0 picks a
// free port once Start is called.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{port: port}
}

// Start binds the listener. WaitForCallback calls it when needed; call it
// earlier to learn the redirect URL of a port-0 server.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	s.listener = ln
	return nil
}

// RedirectURL is the URL to register as redirect_uri.
func (s *CallbackServer) RedirectURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	port := s.port
	if s.listener != nil {
		port = s.listener.Addr().(*net.TCPAddr).Port
	}
	return fmt.Sprintf("http://localhost:%d%s", port, callbackPath)
}

type callbackResult struct {
	code string
	err  error
}

// WaitForCallback serves until one callback arrives, the timeout passes or
// ctx is done. A callback with the wrong state is answered with 400 and
// reported as ErrInvalidState.
func (s *CallbackServer) WaitForCallback(ctx context.Context, expectedState string, timeout time.Duration) (string, error) {
	if err := s.Start(); err != nil {
		return "", err
	}

	results := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if msg := q.Get("error"); msg != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", msg)})
			return
		}
		if q.Get("state") != expectedState {
			http.Error(w, "invalid state", http.StatusBadRequest)
			deliver(callbackResult{err: ErrInvalidState})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("callback did not include an authorization code")})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(callbackPage))
		deliver(callbackResult{code: code})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.mu.Lock()
		s.listener = nil
		s.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		return r.code, r.err
	case <-timer.C:
		return "", fmt.Errorf("timed out after %s waiting for authorization", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
