package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/api"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const defaultRequestTimeout = 12 * time.Second

// TokenListener is notified whenever the client obtains a new token pair,
// either from Login or from a transparent refresh.
type TokenListener func(accessToken, refreshToken string)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	client      api.JournalServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onTokens     TokenListener
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if api.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, _ := s.Tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)

	if err != nil {

		st, ok := status.FromError(err)
		if !ok {
			return err
		}

		if st.Code() != codes.Unauthenticated {
			return err
		}
		if st.Message() != common.ErrTokenExpired.Error() {
			return err
		}

		if _, refresh := s.Tokens(); refresh == "" {
			return err
		}

		if rerr := s.refresh(ctx); rerr != nil {
			return err
		}

		// tokens refreshed, retry once with the new access token
		access, _ = s.Tokens()
		return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	}

	return nil
}

// NewGRPCClient connects to endpointURL. A zero timeout selects the default
// per-call timeout.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout, dialOpts: opts}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewJournalServiceClient(conn)
	return nil
}

// SetTokens installs a token pair, usually one restored from local storage.
func (s *GRPCClient) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) OnTokens(l TokenListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokens = l
}

func (s *GRPCClient) storeTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	l := s.onTokens
	s.mu.Unlock()

	if l != nil {
		l(accessToken, refreshToken)
	}
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Register(ctx context.Context, userName string, salt []byte, verifier []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.RegisterRequest{Username: userName, Salt: salt, Verifier: verifier}

	_, err := s.client.Register(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.GetSaltRequest{Username: userName}

	resp, err := s.client.GetSalt(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Salt, nil
}

func (s *GRPCClient) Login(ctx context.Context, userName string, verifier []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.LoginRequest{Username: userName, VerifierCandidate: verifier}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.storeTokens(resp.AccessToken, resp.RefreshToken)

	return nil
}

// RefreshToken exchanges the current refresh token for a new pair.
func (s *GRPCClient) RefreshToken(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.refresh(ctx); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) refresh(ctx context.Context) error {
	_, refresh := s.Tokens()
	if refresh == "" {
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	}

	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}

	s.storeTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) ListJournals(ctx context.Context) ([]journal.Journal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListJournals(ctx, &api.ListJournalsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]journal.Journal, 0, len(resp.Journals))
	for _, j := range resp.Journals {
		out = append(out, journalFromAPI(j))
	}
	return out, nil
}

func (s *GRPCClient) FetchJournal(ctx context.Context, uid string) (journal.Journal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.FetchJournal(ctx, &api.FetchJournalRequest{UID: uid})
	if err != nil {
		return journal.Journal{}, s.mapError(err)
	}
	return journalFromAPI(resp.Journal), nil
}

func (s *GRPCClient) CreateJournal(ctx context.Context, j journal.Journal) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.CreateJournal(ctx, &api.CreateJournalRequest{Journal: journalToAPI(j)})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) UpdateJournal(ctx context.Context, uid string, info journal.Entry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.UpdateJournal(ctx, &api.UpdateJournalRequest{UID: uid, Info: entryToAPI(info)})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) DeleteJournal(ctx context.Context, uid string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteJournal(ctx, &api.DeleteJournalRequest{UID: uid})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// FetchEntries returns at most limit entries strictly after afterUID,
// oldest first.
func (s *GRPCClient) FetchEntries(ctx context.Context, uid, afterUID string, limit int) ([]journal.Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.FetchEntriesRequest{JournalUID: uid, AfterUID: afterUID, Limit: int32(limit)}

	resp, err := s.client.FetchEntries(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]journal.Entry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		out = append(out, entryFromAPI(e))
	}
	return out, nil
}

// PushEntries appends entries after expectedHead. A moved head surfaces as
// common.ErrHeadConflict.
func (s *GRPCClient) PushEntries(ctx context.Context, uid string, entries []journal.Entry, expectedHead string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.PushEntriesRequest{JournalUID: uid, ExpectedHead: expectedHead}
	req.Entries = make([]api.Entry, 0, len(entries))
	for _, e := range entries {
		req.Entries = append(req.Entries, entryToAPI(e))
	}

	_, err := s.client.PushEntries(ctx, req)
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) GetUserInfo(ctx context.Context, username string) (*cryptox.UserInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetUserInfo(ctx, &api.GetUserInfoRequest{Username: username})
	if err != nil {
		return nil, s.mapError(err)
	}

	u := resp.UserInfo
	return &cryptox.UserInfo{
		Version:   int(u.Version),
		PublicKey: u.PublicKey,
		Content:   u.Content,
		Tag:       u.Tag,
	}, nil
}

func (s *GRPCClient) PutUserInfo(ctx context.Context, info *cryptox.UserInfo) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.PutUserInfoRequest{UserInfo: api.UserInfo{
		Version:   int32(info.Version),
		PublicKey: info.PublicKey,
		Content:   info.Content,
		Tag:       info.Tag,
	}}

	_, err := s.client.PutUserInfo(ctx, req)
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) AddMember(ctx context.Context, uid, username string, wrappedKey []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &api.AddMemberRequest{JournalUID: uid, Username: username, WrappedKey: wrappedKey}

	_, err := s.client.AddMember(ctx, req)
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		sentinel = common.ErrorUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = common.ErrorUnavailable
	case codes.Aborted:
		sentinel = common.ErrHeadConflict
	case codes.NotFound:
		sentinel = common.ErrorNotFound
	case codes.AlreadyExists:
		sentinel = common.ErrorAlreadyExists
	case codes.InvalidArgument:
		sentinel = common.ErrorValidation
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}

	if msg := st.Message(); msg != "" && msg != sentinel.Error() {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return sentinel
}

func entryToAPI(e journal.Entry) api.Entry {
	return api.Entry{UID: e.UID, Content: e.Content, Tag: e.Tag}
}

func entryFromAPI(e api.Entry) journal.Entry {
	return journal.Entry{UID: e.UID, Content: e.Content, Tag: e.Tag}
}

func journalFromAPI(j api.Journal) journal.Journal {
	var access journal.Access = journal.PersonalAccess{}
	if len(j.WrappedKey) > 0 {
		access = journal.SharedAccess{WrappedKey: j.WrappedKey}
	}
	return journal.Journal{
		UID:     j.UID,
		Version: int(j.Version),
		Owner:   j.Owner,
		Info:    entryFromAPI(j.Info),
		Access:  access,
		Head:    j.Head,
	}
}

func journalToAPI(j journal.Journal) api.Journal {
	out := api.Journal{
		UID:     j.UID,
		Version: int32(j.Version),
		Owner:   j.Owner,
		Info:    entryToAPI(j.Info),
		Head:    j.Head,
	}
	if a, ok := j.Access.(journal.SharedAccess); ok {
		out.WrappedKey = a.WrappedKey
	}
	return out
}
