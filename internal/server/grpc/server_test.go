package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeDB struct {
	down  atomic.Bool
	pings atomic.Int32
}

func (f *fakeDB) Ping(ctx context.Context) error {
	f.pings.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

const bufSize = 1 << 20

func startBufGRPC(t *testing.T, db Pinger) (healthpb.HealthClient, func()) {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	gs := New(db, zaptest.NewLogger(t), true)
	go func() { _ = gs.Serve(lis) }()
	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	stop := func() { _ = cc.Close(); gs.Stop(); _ = lis.Close() }
	return healthpb.NewHealthClient(cc), stop
}

func TestHealthCheck_FollowsDatabase(t *testing.T) {
	db := &fakeDB{}
	client, stop := startBufGRPC(t, db)
	defer stop()

	ctx := context.Background()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("want SERVING, got %v", resp.GetStatus())
	}

	db.down.Store(true)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("want NOT_SERVING, got %v", resp.GetStatus())
	}
	if db.pings.Load() != 2 {
		t.Fatalf("want 2 pings, got %d", db.pings.Load())
	}
}

func TestHealthCheck_UnknownService(t *testing.T) {
	client, stop := startBufGRPC(t, &fakeDB{})
	defer stop()

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other.Service"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("want NotFound, got %v", err)
	}
}
