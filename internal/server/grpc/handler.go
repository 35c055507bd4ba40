package grpc

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/api"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	user, err := s.users.Register(ctx, req.Username, req.Salt, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, "Register", err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username)
	return &api.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *api.GetSaltRequest) (*api.GetSaltResponse, error) {
	salt, err := s.users.GetSalt(ctx, req.Username)
	if err != nil {
		return nil, s.toStatus(ctx, "GetSalt", err)
	}
	return &api.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	tokens, err := s.users.Login(ctx, req.Username, req.VerifierCandidate)
	if err != nil {
		return nil, s.toStatus(ctx, "Login", err)
	}
	return &api.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "RefreshToken", err)
	}
	return &api.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) GetUserInfo(ctx context.Context, req *api.GetUserInfoRequest) (*api.GetUserInfoResponse, error) {
	info, err := s.users.GetUserInfo(ctx, req.Username)
	if err != nil {
		return nil, s.toStatus(ctx, "GetUserInfo", err)
	}
	return &api.GetUserInfoResponse{UserInfo: userInfoToAPI(req.Username, info)}, nil
}

func (s *GRPCServer) PutUserInfo(ctx context.Context, req *api.PutUserInfoRequest) (*api.PutUserInfoResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	info := models.UserInfo{
		Version:   int(req.UserInfo.Version),
		PublicKey: req.UserInfo.PublicKey,
		Content:   req.UserInfo.Content,
		Tag:       req.UserInfo.Tag,
	}
	if err := s.users.PutUserInfo(ctx, userID, info); err != nil {
		return nil, s.toStatus(ctx, "PutUserInfo", err)
	}
	return &api.PutUserInfoResponse{}, nil
}
