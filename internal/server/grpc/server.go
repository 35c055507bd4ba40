// Package grpc exposes the user and journal services over the
// JournalService gRPC contract.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/taskjournal/internal/api"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/dmitrijs2005/taskjournal/internal/server/services"
	"google.golang.org/grpc"
)

type userService interface {
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifierCandidate []byte) (*services.TokenPair, error)
	PutUserInfo(ctx context.Context, userID string, info models.UserInfo) error
	GetUserInfo(ctx context.Context, username string) (*models.UserInfo, error)
}

type journalService interface {
	List(ctx context.Context, userID string) ([]*models.Journal, error)
	Get(ctx context.Context, userID, uid string) (*models.Journal, error)
	Create(ctx context.Context, userID string, j *models.Journal) error
	UpdateInfo(ctx context.Context, userID, uid, infoUID string, content, tag []byte) error
	Delete(ctx context.Context, userID, uid string) error
	FetchEntries(ctx context.Context, userID, uid, afterUID string, limit int) ([]models.Entry, error)
	PushEntries(ctx context.Context, userID, uid, expectedHead string, batch []models.Entry) (string, error)
	AddMember(ctx context.Context, userID, uid, username string, wrappedKey []byte) error
}

type GRPCServer struct {
	address   string
	users     userService
	journals  journalService
	logger    logging.Logger
	jwtSecret []byte
}

var _ api.JournalServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us userService, js journalService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		journals:  js,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	api.RegisterJournalServiceServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
