package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultMountPrefix    = "/api/proxy"
	defaultUpdateTimeout  = 60 * time.Second
	defaultRequestTimeout = 45 * time.Second

	maxBodyBytes = 10 << 20

	requestIDHeader = "X-Request-Id"
)

// diagnosticPaths はバックエンドに転送せず固定の応答を返すサブパスです。
var diagnosticPaths = map[string]struct{}{
	"test":   {},
	"health": {},
}

// Options は Gateway の設定です。StripPortArtifact 以外のゼロ値のフィールドには既定値が使われます。
type Options struct {
	BackendOrigin     string
	MountPrefix       string
	StripPortArtifact bool
	UpdateTimeout     time.Duration
	DefaultTimeout    time.Duration
	Client            *http.Client
	Logger            *slog.Logger
	Now               func() time.Time
}

// Gateway はマウントプレフィックス配下のリクエストを固定のバックエンドへ転送します。
// リクエスト間で状態を共有しません。
type Gateway struct {
	origin         string
	prefix         string
	stripArtifact  bool
	updateTimeout  time.Duration
	defaultTimeout time.Duration
	client         *http.Client
	logger         *slog.Logger
	now            func() time.Time
}

// New は Gateway を生成します。
func New(opts Options) *Gateway {
	g := &Gateway{
		origin:         strings.TrimRight(opts.BackendOrigin, "/"),
		prefix:         opts.MountPrefix,
		stripArtifact:  opts.StripPortArtifact,
		updateTimeout:  opts.UpdateTimeout,
		defaultTimeout: opts.DefaultTimeout,
		client:         opts.Client,
		logger:         opts.Logger,
		now:            opts.Now,
	}
	if g.prefix == "" {
		g.prefix = defaultMountPrefix
	}
	g.prefix = "/" + strings.Trim(g.prefix, "/")
	if g.updateTimeout <= 0 {
		g.updateTimeout = defaultUpdateTimeout
	}
	if g.defaultTimeout <= 0 {
		g.defaultTimeout = defaultRequestTimeout
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Router はゲートウェイをマウントした chi ルーターを返します。
// CORS ヘッダーと OPTIONS の応答はマウント外のパスにも適用されます。
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS)

	mount := strings.TrimRight(g.prefix, "/")
	if mount != "" {
		r.HandleFunc(mount, g.handle)
	}
	r.HandleFunc(mount+"/*", g.handle)

	return r
}

// ServeHTTP はルーターを介さずにゲートウェイを直接利用する場合の入口です。
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withCORS(http.HandlerFunc(g.handle)).ServeHTTP(w, r)
}

// withCORS はすべての応答に CORS ヘッダーを付与し、OPTIONS には本文なしの 200 を返します。
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type diagnosticResponse struct {
	Message    string `json:"message"`
	BackendURL string `json:"backendUrl"`
	Timestamp  string `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details"`
	Path       string `json:"path"`
	BackendURL string `json:"backendUrl"`
}

func (g *Gateway) handle(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(requestIDHeader, requestID)

	logger := g.logger.With(
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	path := NormalizePath(r.URL.Path, g.prefix, g.stripArtifact)
	if _, ok := diagnosticPaths[path]; ok {
		writeJSON(w, http.StatusOK, diagnosticResponse{
			Message:    "Proxy is working",
			BackendURL: g.origin,
			Timestamp:  g.now().UTC().Format(time.RFC3339),
		})
		return
	}

	backendURL := g.backendURL(path, r.URL.RawQuery)
	timeout := g.timeoutFor(r.Method)

	started := g.now()
	resp, err := g.forward(r, backendURL, timeout)
	if err != nil {
		upstream := classify(err)
		logger.Error("proxy request failed",
			slog.String("backend_url", backendURL),
			slog.String("kind", upstream.Kind.String()),
			slog.Duration("timeout", timeout),
			slog.String("error", upstream.Err.Error()),
		)
		writeJSON(w, upstream.Kind.StatusCode(), errorResponse{
			Error:      upstream.Kind.message(),
			Details:    upstream.Err.Error(),
			Path:       r.URL.Path,
			BackendURL: backendURL,
		})
		return
	}

	logger.Info("proxy request completed",
		slog.String("backend_url", backendURL),
		slog.Int("status", resp.status),
		slog.Duration("elapsed", g.now().Sub(started)),
	)

	if resp.contentType != "" {
		w.Header().Set("Content-Type", resp.contentType)
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

type upstreamResponse struct {
	status      int
	contentType string
	body        []byte
}

// forward はバックエンドへ 1 回だけリクエストを送信し、応答本文を読み切って返します。
// timeout を超えた場合は送信中の呼び出しを中断します。
func (g *Gateway) forward(r *http.Request, backendURL string, timeout time.Duration) (*upstreamResponse, error) {
	body, err := outboundBody(r)
	if err != nil {
		return nil, &UpstreamError{Kind: KindOther, Err: err}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, backendURL, reader)
	if err != nil {
		return nil, &UpstreamError{Kind: KindOther, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if auth := r.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	return &upstreamResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        payload,
	}, nil
}

// outboundBody は GET 以外のリクエスト本文を JSON として検証し、空白を除いた形で返します。
// 本文が空の場合は nil を返します。
func outboundBody(r *http.Request) ([]byte, error) {
	if r.Method == http.MethodGet || r.Body == nil {
		return nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(raw) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("request body is not valid JSON: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Gateway) backendURL(path, rawQuery string) string {
	u := g.origin + "/api/" + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// timeoutFor は更新系メソッドに長いタイムアウトを割り当てます。
func (g *Gateway) timeoutFor(method string) time.Duration {
	switch method {
	case http.MethodPut, http.MethodPatch:
		return g.updateTimeout
	default:
		return g.defaultTimeout
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
