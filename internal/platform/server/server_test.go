package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ogurasousui/istakip/internal/adapters/grpc/handler"
	"github.com/ogurasousui/istakip/internal/core/finance"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubReports struct {
	finance.UseCase
}

func (stubReports) GetJobSummary(_ context.Context, in finance.JobSummaryInput) (*finance.JobSummary, error) {
	if in.JobID != 1 {
		return nil, finance.ErrJobNotFound
	}
	return &finance.JobSummary{
		JobID:         1,
		CustomerID:    10,
		Income:        decimal.NewFromInt(1000),
		PersonnelCost: decimal.NewFromInt(300),
		MaterialCost:  decimal.NewFromInt(100),
		Cost:          decimal.NewFromInt(400),
		Profit:        decimal.NewFromInt(600),
	}, nil
}

func startBufconn(t *testing.T) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := New("bufnet", stubReports{})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestServer_ReportService(t *testing.T) {
	t.Parallel()

	conn := startBufconn(t)
	client := handler.NewReportServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"job_id": 1})
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	resp, err := client.Call(ctx, "GetJobSummary", req)
	if err != nil {
		t.Fatalf("GetJobSummary returned error: %v", err)
	}
	if got := resp.GetFields()["profit"].GetStringValue(); got != "600.00" {
		t.Fatalf("expected profit 600.00, got %q", got)
	}

	missing, err := structpb.NewStruct(map[string]any{"job_id": 2})
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if _, err := client.Call(ctx, "GetJobSummary", missing); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestServer_HealthCheck(t *testing.T) {
	t.Parallel()

	conn := startBufconn(t)
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: handler.ReportServiceName})
	if err != nil {
		t.Fatalf("health check returned error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}
}

func TestHTTPServer_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	srv := NewHTTP(lis.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, lis)
	}()

	resp, err := http.Get("http://" + lis.Addr().String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
