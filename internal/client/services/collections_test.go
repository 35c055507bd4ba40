package services

import (
	"context"
	"testing"

	"filippo.io/age"
	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/client/store"
	"github.com/dmitrijs2005/taskjournal/internal/client/syncer"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJournals is an in-memory journal server for the collection and
// account services.
type fakeJournals struct {
	journals  map[string]journal.Journal
	userInfos map[string]*cryptox.UserInfo
	members   map[string]map[string][]byte

	updateErr error
	putCalls  int
}

func newFakeJournals() *fakeJournals {
	return &fakeJournals{
		journals:  map[string]journal.Journal{},
		userInfos: map[string]*cryptox.UserInfo{},
		members:   map[string]map[string][]byte{},
	}
}

func (f *fakeJournals) FetchJournal(ctx context.Context, uid string) (journal.Journal, error) {
	j, ok := f.journals[uid]
	if !ok {
		return journal.Journal{}, common.ErrorNotFound
	}
	return j, nil
}

func (f *fakeJournals) CreateJournal(ctx context.Context, j journal.Journal) error {
	if _, ok := f.journals[j.UID]; ok {
		return common.ErrorAlreadyExists
	}
	f.journals[j.UID] = j
	return nil
}

func (f *fakeJournals) UpdateJournal(ctx context.Context, uid string, info journal.Entry) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	j, ok := f.journals[uid]
	if !ok {
		return common.ErrorNotFound
	}
	j.Info = info
	f.journals[uid] = j
	return nil
}

func (f *fakeJournals) DeleteJournal(ctx context.Context, uid string) error {
	if _, ok := f.journals[uid]; !ok {
		return common.ErrorNotFound
	}
	delete(f.journals, uid)
	return nil
}

func (f *fakeJournals) GetUserInfo(ctx context.Context, username string) (*cryptox.UserInfo, error) {
	u, ok := f.userInfos[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeJournals) PutUserInfo(ctx context.Context, info *cryptox.UserInfo) error {
	f.putCalls++
	f.userInfos["alice"] = info
	return nil
}

func (f *fakeJournals) AddMember(ctx context.Context, uid, username string, wrappedKey []byte) error {
	if _, ok := f.journals[uid]; !ok {
		return common.ErrorNotFound
	}
	if f.members[uid] == nil {
		f.members[uid] = map[string][]byte{}
	}
	f.members[uid][username] = wrappedKey
	return nil
}

var alice = syncer.Account{Username: "alice", Secret: []byte("alice secret")}

func newCollectionService(t *testing.T) (*CollectionService, *fakeJournals, *store.Store) {
	t.Helper()
	f := newFakeJournals()
	st := store.New(setupDB(t))
	return NewCollectionService(f, st, logging.Nop{}), f, st
}

func TestCollectionService_Create(t *testing.T) {
	ctx := context.Background()
	svc, f, st := newCollectionService(t)

	c, err := svc.Create(ctx, alice, "  Groceries ", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", c.Name)

	j, ok := f.journals[c.UID]
	require.True(t, ok)
	assert.Equal(t, journal.PersonalAccess{}, j.Access)
	assert.Equal(t, cryptox.CurrentVersion, j.Version)

	m, err := cryptox.Derive(cryptox.CurrentVersion, alice.Secret, c.UID)
	require.NoError(t, err)
	info, err := journal.OpenInfo(c.UID, j.Info, m)
	require.NoError(t, err)
	assert.Equal(t, journal.CollectionInfo{UID: c.UID, Type: common.CollectionTypeTasks, DisplayName: "Groceries", Color: "#ff0000"}, info)

	local, err := st.Collection(ctx, c.UID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", local.Name)
	assert.Equal(t, "", local.Ctag)
}

func TestCollectionService_CreateRequiresName(t *testing.T) {
	svc, f, _ := newCollectionService(t)
	_, err := svc.Create(context.Background(), alice, " ", "")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, f.journals)
}

func TestCollectionService_Rename(t *testing.T) {
	ctx := context.Background()
	svc, f, st := newCollectionService(t)

	c, err := svc.Create(ctx, alice, "Home", "#111111")
	require.NoError(t, err)
	require.NoError(t, st.Apply(ctx, c.UID, models.Change{Action: journal.ActionDelete, RemoteID: "x", EntryUID: "e1"}))

	require.NoError(t, svc.Rename(ctx, alice, c.UID, "House", ""))

	m, err := cryptox.Derive(cryptox.CurrentVersion, alice.Secret, c.UID)
	require.NoError(t, err)
	info, err := journal.OpenInfo(c.UID, f.journals[c.UID].Info, m)
	require.NoError(t, err)
	assert.Equal(t, "House", info.DisplayName)
	assert.Equal(t, "#111111", info.Color)

	local, err := st.Collection(ctx, c.UID)
	require.NoError(t, err)
	assert.Equal(t, "House", local.Name)
	assert.Equal(t, "e1", local.Ctag)
}

func TestCollectionService_RenameForbidden(t *testing.T) {
	ctx := context.Background()
	svc, f, st := newCollectionService(t)

	c, err := svc.Create(ctx, alice, "Home", "")
	require.NoError(t, err)
	f.updateErr = common.ErrorForbidden

	require.ErrorIs(t, svc.Rename(ctx, alice, c.UID, "House", ""), common.ErrorForbidden)

	local, err := st.Collection(ctx, c.UID)
	require.NoError(t, err)
	assert.Equal(t, "Home", local.Name)
}

func TestCollectionService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, f, st := newCollectionService(t)

	c, err := svc.Create(ctx, alice, "Home", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.UID))
	assert.Empty(t, f.journals)

	_, err = st.Collection(ctx, c.UID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, c.UID), common.ErrorNotFound)
}

func TestCollectionService_Share(t *testing.T) {
	ctx := context.Background()
	svc, f, _ := newCollectionService(t)

	c, err := svc.Create(ctx, alice, "Shared", "")
	require.NoError(t, err)

	bobInfo, bobIdentity, err := cryptox.NewUserInfo(cryptox.CurrentVersion, []byte("bob secret"))
	require.NoError(t, err)
	f.userInfos["bob"] = bobInfo

	require.NoError(t, svc.Share(ctx, alice, c.UID, "bob"))

	wrapped := f.members[c.UID]["bob"]
	require.NotEmpty(t, wrapped)

	// bob opens the list with their own identity
	shared := f.journals[c.UID]
	shared.Access = journal.SharedAccess{WrappedKey: wrapped}
	m, err := shared.Crypto(nil, bobIdentity)
	require.NoError(t, err)
	info, err := journal.OpenInfo(c.UID, shared.Info, m)
	require.NoError(t, err)
	assert.Equal(t, "Shared", info.DisplayName)

	_, err = shared.Crypto(nil, mustIdentity(t))
	assert.ErrorIs(t, err, cryptox.ErrIntegrity)
}

func TestCollectionService_ShareErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCollectionService(t)

	c, err := svc.Create(ctx, alice, "Shared", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Share(ctx, alice, c.UID, "alice"), common.ErrorValidation)
	assert.ErrorIs(t, svc.Share(ctx, alice, c.UID, "nobody"), common.ErrorNotFound)
	assert.ErrorIs(t, svc.Share(ctx, alice, "missing", "bob"), common.ErrorNotFound)
}

func mustIdentity(t *testing.T) *age.X25519Identity {
	t.Helper()
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	return id
}
