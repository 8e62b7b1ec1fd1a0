// Package callback runs the loopback HTTP listener the identity provider
// redirects to at the end of a login. The provider puts the identity token in
// the URL fragment, which browsers never send to a server, so the callback
// page reads it with a small script and posts it back.
package callback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/client/config"
	"github.com/dmitrijs2005/keylessvault/internal/client/session"
	"github.com/dmitrijs2005/keylessvault/internal/common"
	"github.com/dmitrijs2005/keylessvault/internal/logging"
	"github.com/gorilla/mux"
)

// FragmentPath receives the fragment posted by the callback page.
const FragmentPath = config.CallbackPath + "/fragment"

const maxFragmentBytes = 64 << 10

// Completer finishes a login from the raw callback fragment.
type Completer interface {
	HandleCallback(ctx context.Context, fragment string) (session.Route, error)
}

// Result is what the callback page gets back.
type Result struct {
	Route   session.Route `json:"route"`
	OK      bool          `json:"ok"`
	Message string        `json:"message"`
}

// Server serves the callback page on a loopback address.
type Server struct {
	address   string
	completer Completer
	logger    logging.Logger
	onResult  func(session.Route, error)

	ready chan string
}

// NewServer creates a Server. onResult, when set, is called after every
// callback attempt.
func NewServer(address string, c Completer, l logging.Logger, onResult func(session.Route, error)) *Server {
	if l == nil {
		l = logging.Discard()
	}
	return &Server{
		address:   address,
		completer: c,
		logger:    l.With("module", "callback_server"),
		onResult:  onResult,
		ready:     make(chan string, 1),
	}
}

// Ready yields the bound address once the listener is up.
func (s *Server) Ready() <-chan string {
	return s.ready
}

// Router returns the HTTP routes of the callback listener.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(config.CallbackPath, s.handlePage).Methods(http.MethodGet)
	r.HandleFunc(FragmentPath, s.handleFragment).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK\n")
	}).Methods(http.MethodGet)
	return r
}

// Run listens until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping callback server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting callback server", "address", listen.Addr().String())
	s.ready <- listen.Addr().String()

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	io.WriteString(w, callbackPage)
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFragmentBytes+1))
	if err != nil {
		http.Error(w, "cannot read request", http.StatusBadRequest)
		return
	}
	if len(body) > maxFragmentBytes {
		http.Error(w, "fragment too large", http.StatusRequestEntityTooLarge)
		return
	}

	route, err := s.completer.HandleCallback(r.Context(), string(body))
	if s.onResult != nil {
		s.onResult(route, err)
	}

	res := Result{Route: route, OK: err == nil, Message: "Signed in. You can close this tab and return to the terminal."}
	status := http.StatusOK
	if err != nil {
		res.Message = common.UserMessage(err)
		status = http.StatusUnauthorized
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(res)
}

const callbackPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Signing in</title></head>
<body>
<p id="status">Completing sign-in...</p>
<script>
(function () {
  var fragment = window.location.hash.replace(/^#/, "");
  history.replaceState(null, "", window.location.pathname);
  fetch("` + FragmentPath + `", {method: "POST", body: fragment})
    .then(function (r) { return r.json(); })
    .then(function (res) { document.getElementById("status").textContent = res.message; })
    .catch(function () { document.getElementById("status").textContent = "Sign-in failed. Please try again."; });
})();
</script>
</body>
</html>
`
