package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// HTTPServer は転送ゲートウェイ用 HTTP サーバーのライフサイクルを管理します。
type HTTPServer struct {
	srv *http.Server
}

// NewHTTP は指定されたアドレスで待ち受ける HTTP サーバーを構築します。
// WriteTimeout は設定せず、上流の待ち時間はハンドラー側のタイムアウトに委ねます。
func NewHTTP(listenAddr string, h http.Handler) *HTTPServer {
	return &HTTPServer{srv: &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると Shutdown します。
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は既存のリスナーでサーバーを起動します。
// コンテキストのキャンセル後は処理中のリクエストの完了を待ってから戻ります。
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	stop := make(chan struct{})
	shutdownErr := make(chan error, 1)

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			shutdownErr <- nil
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- s.srv.Shutdown(shutdownCtx)
	}()

	serveErr := s.srv.Serve(lis)
	close(stop)
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", serveErr)
	}
	return nil
}
