// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/caligben/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM. The
// returned cancel function also releases the signal handler.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over HTTP, HTTPS with manual
// certificates, or HTTPS via Let's Encrypt (http-01), and blocks until ctx
// is canceled or a listener fails. In HTTPS modes port 80 redirects to
// HTTPS (and answers ACME challenges when Let's Encrypt is on).
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.CoreConfig,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		return errors.New("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return errors.New("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)

	var (
		auxSrv   *http.Server
		auxErr   chan error // nil unless auxSrv runs; nil channels block in select
		ln       net.Listener
		serveErr = make(chan error, 1)
	)

	switch {
	case !cfg.HTTP.UseHTTPS:
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}
		ln = l
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	case cfg.TLS.UseLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		auxSrv = newHTTPServer(cfg, m.HTTPHandler(httpRedirectHandler()), logger)
		auxSrv.Addr = ":80"
		auxErr = make(chan error, 1)
		go serve(auxSrv, nil, auxErr)
		logger.Info("ACME + redirect server listening", zap.String("addr", auxSrv.Addr))

		if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
			logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
		}

		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}
		l, err := listenTLS(cfg.HTTP.HTTPSPort, tlsCfg)
		if err != nil {
			_ = shutdownAux(context.Background(), auxSrv)
			return err
		}
		srv.TLSConfig = tlsCfg
		ln = l
		logger.Info("HTTPS server (Let's Encrypt) listening",
			zap.String("addr", ln.Addr().String()), zap.String("domain", cfg.TLS.Domain))

	default:
		if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			var perm *permissionError
			if !errors.As(err, &perm) || cfg.Env == "prod" {
				return err
			}
			logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}

		auxSrv = newHTTPServer(cfg, httpRedirectHandler(), logger)
		auxSrv.Addr = ":80"
		auxErr = make(chan error, 1)
		go serve(auxSrv, nil, auxErr)
		logger.Info("HTTP → HTTPS redirect server listening", zap.String("addr", auxSrv.Addr))

		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
		l, err := listenTLS(cfg.HTTP.HTTPSPort, tlsCfg)
		if err != nil {
			_ = shutdownAux(context.Background(), auxSrv)
			return err
		}
		srv.TLSConfig = tlsCfg
		ln = l
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", ln.Addr().String()), zap.String("cert_file", cfg.TLS.CertFile))
	}

	go serve(srv, ln, serveErr)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server…")
			// Fresh context: ctx is already canceled.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = shutdownAux(shutdownCtx, auxSrv)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			_ = shutdownAux(context.Background(), auxSrv)
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				return fmt.Errorf("auxiliary server error: %w", err)
			}
			auxSrv, auxErr = nil, nil
		}
	}
}

func newHTTPServer(cfg *config.CoreConfig, h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

func listenTLS(port int, tlsCfg *tls.Config) (net.Listener, error) {
	addr := ":" + strconv.Itoa(port)
	base, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen https %s: %w", addr, err)
	}
	return tls.NewListener(base, tlsCfg), nil
}

// serve runs srv on ln (or srv.Addr when ln is nil) and reports exactly one
// result on ch; a clean close reports nil.
func serve(srv *http.Server, ln net.Listener, ch chan<- error) {
	var err error
	if ln != nil {
		err = srv.Serve(ln)
	} else {
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	ch <- err
}

func shutdownAux(ctx context.Context, auxSrv *http.Server) error {
	if auxSrv == nil {
		return nil
	}
	return auxSrv.Shutdown(ctx)
}

// httpRedirectHandler redirects to the HTTPS origin, preserving host and URI.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || !isValidRequestURI(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func isValidRequestURI(uri string) bool {
	for _, c := range uri {
		if (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

// isValidHost rejects Host headers that could inject headers or redirect
// off-site: control characters, schemes, paths and bad ports.
func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}
	hostPart, portStr, err := net.SplitHostPort(host)
	if err != nil {
		hostPart = host
	} else if portStr != "" {
		port, perr := strconv.Atoi(portStr)
		if perr != nil || port <= 0 || port > 65535 {
			return false
		}
	}
	if hostPart == "" {
		return false
	}
	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.Index(ip, "%"); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}
	for _, c := range hostPart {
		if c <= 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

// permissionError marks a key file readable by group or others.
type permissionError struct {
	file string
	mode os.FileMode
}

func (e *permissionError) Error() string {
	return fmt.Sprintf("TLS key file %s has overly permissive permissions %o (recommended: 0600)", e.file, e.mode)
}

// validateTLSFiles checks the cert and key exist and are regular files, and
// that the key is not group/world accessible (Unix only).
func validateTLSFiles(certFile, keyFile string) error {
	if certFile == "" || keyFile == "" {
		return errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	for label, path := range map[string]string{"certificate": certFile, "key": keyFile} {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("TLS %s file does not exist: %s", label, path)
			}
			return fmt.Errorf("cannot access TLS %s file %s: %w", label, path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", label, path)
		}
		if label == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return &permissionError{file: path, mode: info.Mode().Perm()}
		}
	}
	return nil
}

// waitForCert polls autocert until it holds a certificate for host, the
// timeout passes, or ctx ends.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		if _, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host}); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w (last error: %v)", host, ctx.Err(), lastErr)
		case <-time.After(time.Second):
		}
	}
}
