// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/phoneform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// redirectAddr serves ACME http-01 challenges and the HTTP→HTTPS redirect.
const redirectAddr = ":80"

// certWarmup bounds how long startup waits for the first Let's Encrypt
// certificate before serving anyway.
const certWarmup = 60 * time.Second

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// Calling cancel also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Stringer("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over plain HTTP, manual TLS or
// Let's Encrypt (http-01) depending on cfg, and blocks until ctx is done or
// a listener fails. On ctx cancellation it shuts down gracefully within
// cfg.HTTP.ShutdownTimeout.
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: nil config")
	}
	if handler == nil {
		return errors.New("server: nil handler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
	if cfg.HTTP.UseHTTPS {
		addr = ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, cfg, ln, handler, logger)
}

// Serve is ListenAndServeWithContext on an existing listener. The listener
// is closed on return.
func Serve(ctx context.Context, cfg *config.CoreConfig, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := newHTTPServer(cfg, handler, logger)

	var aux *http.Server
	if cfg.HTTP.UseHTTPS {
		tlsCfg, redirect, err := tlsSetup(ctx, cfg, logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		srv.TLSConfig = tlsCfg
		ln = tls.NewListener(ln, tlsCfg)

		aux = newHTTPServer(cfg, redirect, logger)
		aux.Addr = redirectAddr
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	logger.Info("phoneform server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("https", cfg.HTTP.UseHTTPS),
		zap.Bool("lets_encrypt", cfg.TLS.UseLetsEncrypt))

	var auxErr chan error
	if aux != nil {
		auxErr = make(chan error, 1)
		go func() { auxErr <- aux.ListenAndServe() }()
		logger.Info("redirect server listening", zap.String("addr", aux.Addr))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if aux != nil {
				_ = aux.Shutdown(shutdownCtx)
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			if aux != nil {
				_ = aux.Close()
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)

		case err := <-auxErr:
			if errors.Is(err, http.ErrServerClosed) {
				auxErr = nil
				continue
			}
			_ = srv.Close()
			return fmt.Errorf("redirect server: %w", err)
		}
	}
}

func newHTTPServer(cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          stdErrorLog(logger),
	}
}

func stdErrorLog(logger *zap.Logger) *log.Logger {
	l, err := zap.NewStdLogAt(logger, zapcore.WarnLevel)
	if err != nil {
		return nil
	}
	return l
}

// tlsSetup returns the TLS config for the primary listener and the handler
// for the :80 server.
func tlsSetup(ctx context.Context, cfg *config.CoreConfig, logger *zap.Logger) (*tls.Config, http.Handler, error) {
	if cfg.TLS.UseLetsEncrypt {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		go func() {
			if err := waitForCert(ctx, m, cfg.TLS.Domain, certWarmup); err != nil {
				logger.Warn("certificate not ready; first HTTPS requests may fail", zap.Error(err))
			}
		}()
		return &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate},
			m.HTTPHandler(RedirectHandler()), nil
	}

	if err := checkKeyFile(cfg.TLS.KeyFile); err != nil {
		if cfg.Env == "prod" {
			return nil, nil, err
		}
		logger.Warn("TLS key file check failed (fatal in prod)", zap.Error(err))
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}},
		RedirectHandler(), nil
}

// checkKeyFile rejects a key readable by group or others.
func checkKeyFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("TLS key file: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("TLS key path %s is a directory", path)
	}
	if perm := fi.Mode().Perm(); perm&0o077 != 0 {
		return fmt.Errorf("TLS key file %s has permissions %o, want 0600", path, perm)
	}
	return nil
}

// RedirectHandler sends every request to the same host and path over HTTPS.
// Hosts or URIs carrying control characters get 400.
func RedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.RequestURI()
		if !validHost(r.Host) || strings.ContainsFunc(uri, isControl) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+uri, http.StatusMovedPermanently)
	})
}

func isControl(c rune) bool { return c < 0x20 || c == 0x7f }

func validHost(host string) bool {
	if host == "" || strings.ContainsFunc(host, isControl) ||
		strings.Contains(host, "://") || strings.ContainsAny(host, "/ ") {
		return false
	}
	name, port, err := net.SplitHostPort(host)
	if err != nil {
		name = host
	} else if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return false
	}
	if strings.HasPrefix(name, "[") {
		if !strings.HasSuffix(name, "]") {
			return false
		}
		name = name[1 : len(name)-1]
	}
	if i := strings.IndexByte(name, '%'); i >= 0 && strings.Contains(name, ":") {
		name = name[:i]
	}
	if strings.Contains(name, ":") {
		return net.ParseIP(name) != nil
	}
	return name != ""
}

// waitForCert polls autocert until it holds a certificate for host, ctx is
// done or timeout passes.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("certificate for %q: %w (last error: %v)", host, ctx.Err(), err)
		case <-tick.C:
		}
	}
}
