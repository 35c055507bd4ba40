// Package api declares the JournalService gRPC contract shared by the
// client and the server: message types, the service descriptor, and a typed
// client. Messages travel as CBOR using the codec registered by
// internal/codec.
package api

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/codec"
	"google.golang.org/grpc"
)

const ServiceName = "taskjournal.JournalService"

const (
	MethodRegister      = "/" + ServiceName + "/Register"
	MethodGetSalt       = "/" + ServiceName + "/GetSalt"
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodRefreshToken  = "/" + ServiceName + "/RefreshToken"
	MethodPing          = "/" + ServiceName + "/Ping"
	MethodListJournals  = "/" + ServiceName + "/ListJournals"
	MethodFetchJournal  = "/" + ServiceName + "/FetchJournal"
	MethodCreateJournal = "/" + ServiceName + "/CreateJournal"
	MethodUpdateJournal = "/" + ServiceName + "/UpdateJournal"
	MethodDeleteJournal = "/" + ServiceName + "/DeleteJournal"
	MethodFetchEntries  = "/" + ServiceName + "/FetchEntries"
	MethodPushEntries   = "/" + ServiceName + "/PushEntries"
	MethodGetUserInfo   = "/" + ServiceName + "/GetUserInfo"
	MethodPutUserInfo   = "/" + ServiceName + "/PutUserInfo"
	MethodAddMember     = "/" + ServiceName + "/AddMember"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	MethodRegister:     true,
	MethodGetSalt:      true,
	MethodLogin:        true,
	MethodRefreshToken: true,
	MethodPing:         true,
}

// JournalServiceServer is implemented by the server.
type JournalServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	ListJournals(context.Context, *ListJournalsRequest) (*ListJournalsResponse, error)
	FetchJournal(context.Context, *FetchJournalRequest) (*FetchJournalResponse, error)
	CreateJournal(context.Context, *CreateJournalRequest) (*CreateJournalResponse, error)
	UpdateJournal(context.Context, *UpdateJournalRequest) (*UpdateJournalResponse, error)
	DeleteJournal(context.Context, *DeleteJournalRequest) (*DeleteJournalResponse, error)
	FetchEntries(context.Context, *FetchEntriesRequest) (*FetchEntriesResponse, error)
	PushEntries(context.Context, *PushEntriesRequest) (*PushEntriesResponse, error)
	GetUserInfo(context.Context, *GetUserInfoRequest) (*GetUserInfoResponse, error)
	PutUserInfo(context.Context, *PutUserInfoRequest) (*PutUserInfoResponse, error)
	AddMember(context.Context, *AddMemberRequest) (*AddMemberResponse, error)
}

// RegisterJournalServiceServer attaches srv to s.
func RegisterJournalServiceServer(s grpc.ServiceRegistrar, srv JournalServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JournalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", JournalServiceServer.Register),
		unary("GetSalt", JournalServiceServer.GetSalt),
		unary("Login", JournalServiceServer.Login),
		unary("RefreshToken", JournalServiceServer.RefreshToken),
		unary("Ping", JournalServiceServer.Ping),
		unary("ListJournals", JournalServiceServer.ListJournals),
		unary("FetchJournal", JournalServiceServer.FetchJournal),
		unary("CreateJournal", JournalServiceServer.CreateJournal),
		unary("UpdateJournal", JournalServiceServer.UpdateJournal),
		unary("DeleteJournal", JournalServiceServer.DeleteJournal),
		unary("FetchEntries", JournalServiceServer.FetchEntries),
		unary("PushEntries", JournalServiceServer.PushEntries),
		unary("GetUserInfo", JournalServiceServer.GetUserInfo),
		unary("PutUserInfo", JournalServiceServer.PutUserInfo),
		unary("AddMember", JournalServiceServer.AddMember),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskjournal/journal_service",
}

func unary[Req, Resp any](name string, call func(JournalServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(JournalServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// JournalServiceClient is the client side of JournalService.
type JournalServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	ListJournals(ctx context.Context, in *ListJournalsRequest, opts ...grpc.CallOption) (*ListJournalsResponse, error)
	FetchJournal(ctx context.Context, in *FetchJournalRequest, opts ...grpc.CallOption) (*FetchJournalResponse, error)
	CreateJournal(ctx context.Context, in *CreateJournalRequest, opts ...grpc.CallOption) (*CreateJournalResponse, error)
	UpdateJournal(ctx context.Context, in *UpdateJournalRequest, opts ...grpc.CallOption) (*UpdateJournalResponse, error)
	DeleteJournal(ctx context.Context, in *DeleteJournalRequest, opts ...grpc.CallOption) (*DeleteJournalResponse, error)
	FetchEntries(ctx context.Context, in *FetchEntriesRequest, opts ...grpc.CallOption) (*FetchEntriesResponse, error)
	PushEntries(ctx context.Context, in *PushEntriesRequest, opts ...grpc.CallOption) (*PushEntriesResponse, error)
	GetUserInfo(ctx context.Context, in *GetUserInfoRequest, opts ...grpc.CallOption) (*GetUserInfoResponse, error)
	PutUserInfo(ctx context.Context, in *PutUserInfoRequest, opts ...grpc.CallOption) (*PutUserInfoResponse, error)
	AddMember(ctx context.Context, in *AddMemberRequest, opts ...grpc.CallOption) (*AddMemberResponse, error)
}

type journalServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewJournalServiceClient returns a client that speaks CBOR over cc.
func NewJournalServiceClient(cc grpc.ClientConnInterface) JournalServiceClient {
	return &journalServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.GRPCName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *journalServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *journalServiceClient) GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error) {
	return invoke[GetSaltResponse](ctx, c.cc, MethodGetSalt, in, opts)
}

func (c *journalServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *journalServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *journalServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *journalServiceClient) ListJournals(ctx context.Context, in *ListJournalsRequest, opts ...grpc.CallOption) (*ListJournalsResponse, error) {
	return invoke[ListJournalsResponse](ctx, c.cc, MethodListJournals, in, opts)
}

func (c *journalServiceClient) FetchJournal(ctx context.Context, in *FetchJournalRequest, opts ...grpc.CallOption) (*FetchJournalResponse, error) {
	return invoke[FetchJournalResponse](ctx, c.cc, MethodFetchJournal, in, opts)
}

func (c *journalServiceClient) CreateJournal(ctx context.Context, in *CreateJournalRequest, opts ...grpc.CallOption) (*CreateJournalResponse, error) {
	return invoke[CreateJournalResponse](ctx, c.cc, MethodCreateJournal, in, opts)
}

func (c *journalServiceClient) UpdateJournal(ctx context.Context, in *UpdateJournalRequest, opts ...grpc.CallOption) (*UpdateJournalResponse, error) {
	return invoke[UpdateJournalResponse](ctx, c.cc, MethodUpdateJournal, in, opts)
}

func (c *journalServiceClient) DeleteJournal(ctx context.Context, in *DeleteJournalRequest, opts ...grpc.CallOption) (*DeleteJournalResponse, error) {
	return invoke[DeleteJournalResponse](ctx, c.cc, MethodDeleteJournal, in, opts)
}

func (c *journalServiceClient) FetchEntries(ctx context.Context, in *FetchEntriesRequest, opts ...grpc.CallOption) (*FetchEntriesResponse, error) {
	return invoke[FetchEntriesResponse](ctx, c.cc, MethodFetchEntries, in, opts)
}

func (c *journalServiceClient) PushEntries(ctx context.Context, in *PushEntriesRequest, opts ...grpc.CallOption) (*PushEntriesResponse, error) {
	return invoke[PushEntriesResponse](ctx, c.cc, MethodPushEntries, in, opts)
}

func (c *journalServiceClient) GetUserInfo(ctx context.Context, in *GetUserInfoRequest, opts ...grpc.CallOption) (*GetUserInfoResponse, error) {
	return invoke[GetUserInfoResponse](ctx, c.cc, MethodGetUserInfo, in, opts)
}

func (c *journalServiceClient) PutUserInfo(ctx context.Context, in *PutUserInfoRequest, opts ...grpc.CallOption) (*PutUserInfoResponse, error) {
	return invoke[PutUserInfoResponse](ctx, c.cc, MethodPutUserInfo, in, opts)
}

func (c *journalServiceClient) AddMember(ctx context.Context, in *AddMemberRequest, opts ...grpc.CallOption) (*AddMemberResponse, error) {
	return invoke[AddMemberResponse](ctx, c.cc, MethodAddMember, in, opts)
}
