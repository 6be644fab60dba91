// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/badgesim/internal/logging"
)

// DefaultHTTPShutdownTimeout applies when no drain timeout is configured.
const DefaultHTTPShutdownTimeout = 5 * time.Second

// HTTPServer matches the methods of *http.Server the endpoint uses.
type HTTPServer interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// EndpointService serves the metrics, health, status and event feed routes
// of a run. It binds before serving so a bad address fails the attempt with
// the address in the error, and drains in-flight requests on shutdown.
//
//	server := &http.Server{Handler: api.NewRouter(routerCfg)}
//	tree.AddEndpoint(services.NewEndpointService(cfg.Metrics.Addr, server, cfg.Supervisor.HTTPShutdownTimeout))
type EndpointService struct {
	addr            string
	server          HTTPServer
	shutdownTimeout time.Duration
	listen          func(network, addr string) (net.Listener, error)
}

// NewEndpointService creates the endpoint for addr. A non-positive
// shutdownTimeout uses DefaultHTTPShutdownTimeout.
func NewEndpointService(addr string, server HTTPServer, shutdownTimeout time.Duration) *EndpointService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultHTTPShutdownTimeout
	}
	return &EndpointService{
		addr:            addr,
		server:          server,
		shutdownTimeout: shutdownTimeout,
		listen:          net.Listen,
	}
}

// Serve implements suture.Service. It returns the bind or serve error, and
// ctx.Err() once the server has drained after cancellation.
func (s *EndpointService) Serve(ctx context.Context) error {
	ln, err := s.listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	logging.Info().Str("addr", ln.Addr().String()).Msg("Endpoint listening")

	errCh := make(chan error, 1)
	go func() {
		err := s.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve %s: %w", s.addr, err)
		}
		return nil

	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("drain %s: %w", s.addr, err)
		}
		<-errCh
		logging.Info().Str("addr", s.addr).Msg("Endpoint stopped")
		return ctx.Err()
	}
}

// String identifies the service in supervisor logs.
func (s *EndpointService) String() string {
	return "endpoint " + s.addr
}
