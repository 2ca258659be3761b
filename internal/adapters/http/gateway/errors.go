package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind は上流呼び出し失敗の分類です。
type Kind int

const (
	// KindOther はタイムアウト・到達不能以外の失敗です。
	KindOther Kind = iota
	// KindTimeout は上流呼び出しが制限時間内に完了しなかったことを表します。
	KindTimeout
	// KindUnreachable はバックエンドへの接続自体に失敗したことを表します。
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	default:
		return "other"
	}
}

// StatusCode は分類に対応する HTTP ステータスを返します。
func (k Kind) StatusCode() int {
	switch k {
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// message は利用者向けのエラーメッセージです。
func (k Kind) message() string {
	switch k {
	case KindTimeout:
		return "Backend request timed out"
	case KindUnreachable:
		return "Backend is unreachable"
	default:
		return "Proxy request failed"
	}
}

// UpstreamError は上流呼び出しの失敗を分類付きで表現します。
type UpstreamError struct {
	Kind Kind
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gateway: upstream %s: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// classify は送信処理のエラーを UpstreamError に変換します。既に分類済みの場合はそのまま返します。
func classify(err error) *UpstreamError {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UpstreamError{Kind: KindTimeout, Err: err}
	}

	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &UpstreamError{Kind: KindUnreachable, Err: err}
	}

	return &UpstreamError{Kind: KindOther, Err: err}
}
