package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pulseguard/pulseguard/internal/domain/ping"
	"github.com/pulseguard/pulseguard/internal/domain/server"
)

type Config struct {
	DefaultTimeout  time.Duration
	UserAgent       string
	FollowRedirects bool
	VerifyTLS       bool
}

type handler func(ctx context.Context, srv *server.Server, timeout time.Duration) Outcome

// Prober runs one protocol-appropriate check per call. Dispatch is a
// closed capability set keyed by protocol; registering a handler is
// the only change a new protocol needs. No shared mutable state, safe
// for concurrent use across servers.
type Prober struct {
	client   *http.Client
	dialer   *net.Dialer
	ua       string
	timeout  time.Duration
	handlers map[server.Protocol]handler
}

func New(cfg Config) *Prober {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 10 * time.Second
	}
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}
	client := &http.Client{Transport: otelhttp.NewTransport(transport)}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	p := &Prober{
		client:  client,
		dialer:  dialer,
		ua:      cfg.UserAgent,
		timeout: cfg.DefaultTimeout,
	}
	p.handlers = map[server.Protocol]handler{
		server.ProtocolHTTP:  p.checkHTTP,
		server.ProtocolHTTPS: p.checkHTTP,
		server.ProtocolTCP:   p.checkTCP,
		// TODO: swap in a raw-socket echo once we run with CAP_NET_RAW.
		server.ProtocolICMP: p.checkTCP,
	}
	return p
}

// Probe executes one check and never returns a Go error: transport
// failures are encoded in the outcome status.
func (p *Prober) Probe(ctx context.Context, srv *server.Server) Outcome {
	h, ok := p.handlers[srv.Protocol]
	if !ok {
		return Outcome{
			Status:       ping.StatusError,
			ErrorMessage: fmt.Sprintf("unsupported protocol: %s", srv.Protocol),
		}
	}
	timeout := srv.Timeout
	if timeout <= 0 {
		timeout = p.timeout
	}
	return h(ctx, srv, timeout)
}

func (p *Prober) checkHTTP(ctx context.Context, srv *server.Server, timeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL(), nil)
	if err != nil {
		return Outcome{Status: ping.StatusError, ErrorMessage: err.Error()}
	}
	if p.ua != "" {
		req.Header.Set("User-Agent", p.ua)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Outcome{Status: ping.StatusTimeout, ErrorMessage: "timeout"}
		}
		return Outcome{Status: ping.StatusError, ErrorMessage: err.Error()}
	}
	elapsed := elapsedMS(start)
	defer resp.Body.Close()

	code := resp.StatusCode
	st := ping.StatusSuccess
	if code >= 500 {
		st = ping.StatusFailure
	}
	return Outcome{Status: st, StatusCode: &code, ResponseTime: &elapsed}
}

func (p *Prober) checkTCP(ctx context.Context, srv *server.Server, timeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(ctx, "tcp", srv.Addr())
	if err != nil {
		if isTimeout(err) {
			return Outcome{Status: ping.StatusTimeout, ErrorMessage: "timeout"}
		}
		return Outcome{Status: ping.StatusFailure, ErrorMessage: err.Error()}
	}
	elapsed := elapsedMS(start)
	_ = conn.Close()
	return Outcome{Status: ping.StatusSuccess, ResponseTime: &elapsed}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// elapsedMS is wall-clock milliseconds since start, two decimals.
func elapsedMS(start time.Time) float64 {
	return math.Round(float64(time.Since(start).Microseconds())/10) / 100
}
