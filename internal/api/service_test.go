package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeServer struct {
	JournalServiceServer

	lastPush *PushEntriesRequest
}

func (f *fakeServer) Ping(ctx context.Context, _ *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

func (f *fakeServer) PushEntries(ctx context.Context, req *PushEntriesRequest) (*PushEntriesResponse, error) {
	f.lastPush = req
	if req.ExpectedHead == "stale" {
		return nil, status.Error(codes.Aborted, "head conflict")
	}
	return &PushEntriesResponse{Head: req.Entries[len(req.Entries)-1].UID}, nil
}

func dial(t *testing.T, srv JournalServiceServer, opts ...grpc.ServerOption) JournalServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterJournalServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewJournalServiceClient(conn)
}

func TestRoundTrip(t *testing.T) {
	fake := &fakeServer{}
	c := dial(t, fake)
	ctx := context.Background()

	resp, err := c.Ping(ctx, &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)

	req := &PushEntriesRequest{
		JournalUID:   "j1",
		ExpectedHead: "h0",
		Entries: []Entry{
			{UID: "h1", Content: []byte{1, 2, 3}, Tag: []byte{4}},
			{UID: "h2", Content: []byte{5}, Tag: []byte{6}},
		},
	}
	push, err := c.PushEntries(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "h2", push.Head)
	assert.Equal(t, req, fake.lastPush)

	_, err = c.PushEntries(ctx, &PushEntriesRequest{JournalUID: "j1", ExpectedHead: "stale", Entries: req.Entries})
	assert.Equal(t, codes.Aborted, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen []string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = append(seen, info.FullMethod)
		return handler(ctx, req)
	}

	c := dial(t, &fakeServer{}, grpc.UnaryInterceptor(interceptor))
	_, err := c.Ping(context.Background(), &PingRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{MethodPing}, seen)
	assert.True(t, PublicMethods[MethodPing])
	assert.False(t, PublicMethods[MethodPushEntries])
}
