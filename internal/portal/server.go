// Package portal runs the provisioning access point: a captive HTTP form and
// a wildcard DNS responder. Listener goroutines only move bytes; every
// request is executed by the process loop through Server.Step.
package portal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/provision"
	"git.home.luguber.info/inful/onboard/internal/wifi"
)

// Options configures the portal.
type Options struct {
	AccessPoint wifi.AccessPoint
	HTTPListen  string
	DNSListen   string // empty disables the DNS responder
}

// Server is the provisioning server.
type Server struct {
	opts    Options
	radio   wifi.Radio
	flow    *provision.Flow
	render  FormRenderer
	metrics metrics.Recorder
	logger  *slog.Logger
	adapter *errors.HTTPErrorAdapter
	apIP    netip.Addr

	jobs   chan *job
	closed chan struct{}
	once   sync.Once

	httpSrv *http.Server
	httpLn  net.Listener
	dns     *dnsListener
}

// job is one unit of work handed from a listener to the loop.
type job struct {
	run  func(ctx context.Context)
	done chan struct{}
}

// New builds a server. A nil renderer uses DefaultForm.
func New(opts Options, radio wifi.Radio, flow *provision.Flow, render FormRenderer, rec metrics.Recorder, logger *slog.Logger) (*Server, error) {
	ip, err := netip.ParseAddr(opts.AccessPoint.Address)
	if err != nil || !ip.Is4() {
		return nil, errors.ConfigError("access point address must be IPv4").
			WithContext("address", opts.AccessPoint.Address).
			Build()
	}
	if render == nil {
		render = DefaultForm
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:    opts,
		radio:   radio,
		flow:    flow,
		render:  render,
		metrics: rec,
		logger:  logger,
		adapter: errors.NewHTTPErrorAdapter(logger),
		apIP:    ip,
		jobs:    make(chan *job),
		closed:  make(chan struct{}),
	}, nil
}

// Handler returns the portal's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chainMiddleware(s.logger, s.metrics, s.adapter))
	r.Get("/", s.handleForm)
	r.Post("/save", s.handleSave)
	r.NotFound(s.handleCaptive)
	r.MethodNotAllowed(s.handleCaptive)
	return r
}

// Start brings up the access point and binds the listeners.
func (s *Server) Start(ctx context.Context) error {
	if err := s.radio.StartAP(ctx, s.opts.AccessPoint); err != nil {
		return errors.WrapError(err, errors.CategoryHardware, "failed to start access point").
			WithContext("ssid", s.opts.AccessPoint.SSID).
			Build()
	}

	ln, err := net.Listen("tcp", s.opts.HTTPListen)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to bind portal listener").
			WithContext("listen", s.opts.HTTPListen).
			Build()
	}
	s.httpLn = ln
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = s.httpSrv.Serve(ln) }()

	if s.opts.DNSListen != "" {
		d, err := listenDNS(s.opts.DNSListen)
		if err != nil {
			_ = s.httpSrv.Close()
			return errors.WrapError(err, errors.CategoryRuntime, "failed to bind dns responder").
				WithContext("listen", s.opts.DNSListen).
				Build()
		}
		s.dns = d
		go d.serve(s.answerDNS)
	}

	s.logger.Info("Setup portal running at http://"+s.apIP.String(),
		slog.String("ap_ssid", s.opts.AccessPoint.SSID),
		slog.String("http", s.HTTPAddr()))
	return nil
}

// HTTPAddr returns the bound HTTP address, or "" before Start.
func (s *Server) HTTPAddr() string {
	if s.httpLn == nil {
		return ""
	}
	return s.httpLn.Addr().String()
}

// DNSAddr returns the bound DNS address, or "" when disabled.
func (s *Server) DNSAddr() string {
	if s.dns == nil {
		return ""
	}
	return s.dns.Addr().String()
}

// Step runs at most one pending request and reports whether it did.
func (s *Server) Step(ctx context.Context) bool {
	select {
	case j := <-s.jobs:
		s.execute(ctx, j)
		return true
	default:
		return false
	}
}

func (s *Server) execute(ctx context.Context, j *job) {
	defer close(j.done)
	defer func() {
		if rv := recover(); rv != nil {
			s.logger.Error("Portal job panic", "panic", rv)
		}
	}()
	j.run(ctx)
}

// Close stops the listeners. Requests still waiting for the loop are abandoned.
func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err = s.httpSrv.Shutdown(ctx)
		}
		if s.dns != nil {
			_ = s.dns.Close()
		}
	})
	return err
}

// dispatch hands run to the loop and waits until it finished.
func (s *Server) dispatch(ctx context.Context, run func(ctx context.Context)) bool {
	j := &job{run: run, done: make(chan struct{})}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return false
	case <-s.closed:
		return false
	}
	<-j.done
	return true
}

// reply is what the loop hands back to an HTTP handler.
type reply struct {
	status int
	body   string
	err    error
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, ok bool, rep reply) {
	if !ok {
		http.Error(w, "portal closed", http.StatusServiceUnavailable)
		return
	}
	if rep.err != nil {
		s.adapter.WriteErrorResponse(w, r, rep.err)
		return
	}
	if rep.status == 0 {
		// The job panicked before producing a reply.
		s.adapter.WriteErrorResponse(w, r, errors.InternalError("internal server error").Build())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	var rep reply
	ok := s.dispatch(r.Context(), func(ctx context.Context) { rep = s.formReply(ctx) })
	s.write(w, r, ok, rep)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.adapter.WriteErrorResponse(w, r, errors.ValidationError("malformed form").Build())
		return
	}
	cand := provision.Candidate{
		SSID:       r.PostForm.Get("ssid"),
		SSIDManual: r.PostForm.Get("ssid_manual"),
		Password:   r.PostForm.Get("pass"),
		Endpoint:   r.PostForm.Get("api"),
	}
	var rep reply
	ok := s.dispatch(r.Context(), func(ctx context.Context) { rep = s.saveReply(ctx, cand) })
	s.write(w, r, ok, rep)
}

// handleCaptive sends clients that asked for a hostname to the portal itself.
func (s *Server) handleCaptive(w http.ResponseWriter, r *http.Request) {
	if !isIPLiteral(r.Host) {
		w.Header().Set("Location", "http://"+s.localIP(r))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusFound)
		return
	}
	s.handleForm(w, r)
}

func (s *Server) formReply(ctx context.Context) reply {
	nets, err := s.radio.Scan(ctx)
	if err != nil {
		s.logger.Warn("Network scan failed", logfields.Error(err))
	}
	return reply{status: http.StatusOK, body: s.render(nets)}
}

func (s *Server) saveReply(ctx context.Context, cand provision.Candidate) reply {
	res := s.flow.Submit(ctx, cand)
	switch res.Outcome {
	case provision.Rejected:
		return reply{err: res.Err}
	case provision.Committed:
		return reply{status: http.StatusOK, body: successPage(res.IP)}
	default:
		s.restoreAP(ctx)
		return reply{status: http.StatusOK, body: failurePage}
	}
}

// restoreAP brings the access point back after a failed join took it down.
func (s *Server) restoreAP(ctx context.Context) {
	if err := s.radio.StartAP(ctx, s.opts.AccessPoint); err != nil {
		s.logger.Error("Failed to restore access point", logfields.Error(err))
	}
}

func (s *Server) answerDNS(query []byte) ([]byte, bool) {
	var (
		resp []byte
		err  error
	)
	ok := s.dispatch(context.Background(), func(context.Context) { resp, err = BuildAnswer(query, s.apIP) })
	if !ok || err != nil {
		return nil, false
	}
	return resp, true
}

func (s *Server) localIP(r *http.Request) string {
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		if ap, err := netip.ParseAddrPort(addr.String()); err == nil {
			ip := ap.Addr().Unmap()
			if ip.Is6() {
				return "[" + ip.String() + "]"
			}
			return ip.String()
		}
	}
	return s.apIP.String()
}

func isIPLiteral(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	_, err := netip.ParseAddr(host)
	return err == nil
}
