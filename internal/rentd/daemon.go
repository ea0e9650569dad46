package rentd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// DefaultPort is the default gRPC port.
const DefaultPort = 50071

// Options override the server section of the config.
type Options struct {
	Host    string
	Port    int
	Version string
}

// Daemon is the long-running gRPC process.
type Daemon struct {
	logger zerolog.Logger
	opts   Options

	server     *Server
	limiter    *RateLimiter
	grpcServer *grpc.Server
}

// New constructs a daemon. contracts may be nil, in which case only the
// engine methods are served.
func New(cfg *config.Config, contracts *contract.Service, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Host == "" {
		opts.Host = cfg.Server.Host
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = cfg.Server.Port
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	serverOpts := []ServerOption{WithVersion(opts.Version)}
	if contracts != nil {
		serverOpts = append(serverOpts, WithContractService(contracts))
	}
	server := NewServer(logger, serverOpts...)
	limiter := NewRateLimiter(WithEnabled(cfg.Server.RateLimit))

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			limiter.UnaryServerInterceptor(),
			loggingInterceptor(logger),
		),
	)
	RegisterTemplateServiceServer(grpcServer, server)

	return &Daemon{
		logger:     logger,
		opts:       opts,
		server:     server,
		limiter:    limiter,
		grpcServer: grpcServer,
	}, nil
}

// Run listens on the configured address and serves until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	bindAddr := d.bindAddr()
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", bindAddr, err)
	}
	return d.Serve(ctx, listener)
}

// Serve serves on listener until ctx is canceled, then stops gracefully.
func (d *Daemon) Serve(ctx context.Context, listener net.Listener) error {
	d.logger.Info().
		Str("bind", listener.Addr().String()).
		Str("version", d.opts.Version).
		Msg("rentd gRPC server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := d.grpcServer.Serve(listener); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		d.logger.Info().Msg("rentd shutting down...")
		d.grpcServer.GracefulStop()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
	}

	d.logger.Info().Msg("rentd shutdown complete")
	return nil
}

func (d *Daemon) bindAddr() string {
	return net.JoinHostPort(d.opts.Host, strconv.Itoa(d.opts.Port))
}

// Server returns the service implementation.
func (d *Daemon) Server() *Server {
	return d.server
}

// RateLimiter returns the limiter guarding the service.
func (d *Daemon) RateLimiter() *RateLimiter {
	return d.limiter
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}
