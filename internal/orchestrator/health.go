package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

// ErrHealthTimeout is returned when a service's readiness probe never
// passes within its health timeout.
var ErrHealthTimeout = errors.New("health timeout")

// Prober checks whether a service is ready to accept traffic.
type Prober interface {
	Probe(ctx context.Context) error
}

// TCPProber succeeds when a TCP connection to Addr can be established.
type TCPProber struct {
	Addr string
}

func (p *TCPProber) Probe(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// HTTPProber succeeds when a GET against URL returns a status below 500.
// Services like Elasticsearch report readiness with 2xx, but TheHive
// answers 401 on its status endpoint until authenticated, so any
// non-5xx response counts as up.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe %s: status %d", p.URL, resp.StatusCode)
	}
	return nil
}

// ProberFor builds the readiness prober for a service spec. The probe
// port refers to the host side of a published mapping; when the spec
// does not name one, the first published host port is used.
func ProberFor(spec config.ServiceSpec) (Prober, error) {
	port := spec.Probe.Port
	if port == 0 {
		mappings, err := spec.PortMappings()
		if err != nil {
			return nil, err
		}
		if len(mappings) == 0 {
			return nil, fmt.Errorf("service %q has no published ports to probe", spec.Name)
		}
		port = mappings[0].HostPort
	}

	switch spec.Probe.Type {
	case config.ProbeHTTP:
		return &HTTPProber{URL: fmt.Sprintf("http://localhost:%d%s", port, spec.Probe.Path)}, nil
	default:
		return &TCPProber{Addr: fmt.Sprintf("localhost:%d", port)}, nil
	}
}

// WaitHealthy polls the prober until it passes, the timeout elapses, or
// ctx is canceled. The first probe fires immediately.
func WaitHealthy(ctx context.Context, label string, prober Prober, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	probeCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		if err := prober.Probe(probeCtx); err == nil {
			logging.Debug("HealthGate", "Service %s healthy after %d probes", label, attempt)
			return nil
		} else {
			logging.Debug("HealthGate", "Service %s probe %d failed: %v", label, attempt, err)
		}

		select {
		case <-probeCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("service %q not healthy after %s: %w", label, timeout, ErrHealthTimeout)
		case <-ticker.C:
		}
	}
}
