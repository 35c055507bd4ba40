package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/entries"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/journals"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/members"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/userinfo"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// memStore backs every fake repository. Transactions are not modelled: the
// sqlmock DB only checks that Begin/Commit/Rollback happen.
type memStore struct {
	users    map[string]*models.User
	tokens   map[string]*models.RefreshToken
	infos    map[string]models.UserInfo
	journals map[string]*models.Journal
	entries  map[string][]models.Entry
	members  map[string]map[string][]byte

	err error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		tokens:   map[string]*models.RefreshToken{},
		infos:    map[string]models.UserInfo{},
		journals: map[string]*models.Journal{},
		entries:  map[string][]models.Entry{},
		members:  map[string]map[string][]byte{},
	}
}

func (m *memStore) addUser(id, name string) {
	m.users[name] = &models.User{ID: id, UserName: name, Salt: []byte("salt-" + name), Verifier: []byte("ver-" + name)}
}

func (m *memStore) userByID(id string) *models.User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

type fakeRepoManager struct{ s *memStore }

func (f fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f fakeRepoManager) Users(dbx.DBTX) users.Repository              { return fakeUsers{f.s} }
func (f fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return fakeTokens{f.s}
}
func (f fakeRepoManager) UserInfo(dbx.DBTX) userinfo.Repository { return fakeUserInfo{f.s} }
func (f fakeRepoManager) Journals(dbx.DBTX) journals.Repository { return fakeJournals{f.s} }
func (f fakeRepoManager) Entries(dbx.DBTX) entries.Repository   { return fakeEntries{f.s} }
func (f fakeRepoManager) Members(dbx.DBTX) members.Repository   { return fakeMembers{f.s} }

type fakeUsers struct{ s *memStore }

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.s.err != nil {
		return nil, f.s.err
	}
	if _, ok := f.s.users[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = "id-" + u.UserName
	f.s.users[u.UserName] = u
	return u, nil
}

func (f fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	if f.s.err != nil {
		return nil, f.s.err
	}
	u, ok := f.s.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeTokens struct{ s *memStore }

func (f fakeTokens) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.s.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f fakeTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f fakeTokens) Delete(_ context.Context, token string) error {
	delete(f.s.tokens, token)
	return nil
}

func (f fakeTokens) DeleteExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	var n int64
	for k, t := range f.s.tokens {
		if t.UserID == userID && t.Expires.Before(now) {
			delete(f.s.tokens, k)
			n++
		}
	}
	return n, nil
}

type fakeUserInfo struct{ s *memStore }

func (f fakeUserInfo) Upsert(_ context.Context, info models.UserInfo) error {
	f.s.infos[info.UserID] = info
	return nil
}

func (f fakeUserInfo) GetByUsername(_ context.Context, username string) (*models.UserInfo, error) {
	u, ok := f.s.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	info, ok := f.s.infos[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &info, nil
}

type fakeJournals struct{ s *memStore }

func (f fakeJournals) Create(_ context.Context, j *models.Journal) error {
	if _, ok := f.s.journals[j.UID]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *j
	f.s.journals[j.UID] = &cp
	return nil
}

func (f fakeJournals) visible(j *models.Journal, userID string) (*models.Journal, bool) {
	cp := *j
	if u := f.s.userByID(j.OwnerID); u != nil {
		cp.Owner = u.UserName
	}
	if j.OwnerID == userID {
		return &cp, true
	}
	if key, ok := f.s.members[j.UID][userID]; ok {
		cp.WrappedKey = key
		return &cp, true
	}
	return nil, false
}

func (f fakeJournals) GetForUser(_ context.Context, uid, userID string) (*models.Journal, error) {
	if f.s.err != nil {
		return nil, f.s.err
	}
	j, ok := f.s.journals[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v, ok := f.visible(j, userID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return v, nil
}

func (f fakeJournals) ListForUser(_ context.Context, userID string) ([]*models.Journal, error) {
	var out []*models.Journal
	for _, j := range f.s.journals {
		if v, ok := f.visible(j, userID); ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UID < out[k].UID })
	return out, nil
}

func (f fakeJournals) LockHead(_ context.Context, uid string) (string, string, error) {
	j, ok := f.s.journals[uid]
	if !ok {
		return "", "", common.ErrorNotFound
	}
	return j.OwnerID, j.Head, nil
}

func (f fakeJournals) SetHead(_ context.Context, uid, head string) error {
	f.s.journals[uid].Head = head
	return nil
}

func (f fakeJournals) UpdateInfo(_ context.Context, uid, infoUID string, content, tag []byte) error {
	j := f.s.journals[uid]
	j.InfoUID, j.InfoContent, j.InfoTag = infoUID, content, tag
	return nil
}

func (f fakeJournals) Delete(_ context.Context, uid string) error {
	delete(f.s.journals, uid)
	delete(f.s.entries, uid)
	delete(f.s.members, uid)
	return nil
}

type fakeEntries struct{ s *memStore }

func (f fakeEntries) Append(_ context.Context, journalUID string, lastSeq int64, batch []models.Entry) error {
	for i, e := range batch {
		e.JournalUID = journalUID
		e.Seq = lastSeq + int64(i) + 1
		f.s.entries[journalUID] = append(f.s.entries[journalUID], e)
	}
	return nil
}

func (f fakeEntries) SeqOf(_ context.Context, journalUID, uid string) (int64, error) {
	for _, e := range f.s.entries[journalUID] {
		if e.UID == uid {
			return e.Seq, nil
		}
	}
	return 0, common.ErrorNotFound
}

func (f fakeEntries) LastSeq(_ context.Context, journalUID string) (int64, error) {
	es := f.s.entries[journalUID]
	if len(es) == 0 {
		return 0, nil
	}
	return es[len(es)-1].Seq, nil
}

func (f fakeEntries) ListAfter(_ context.Context, journalUID string, afterSeq int64, limit int) ([]models.Entry, error) {
	var out []models.Entry
	for _, e := range f.s.entries[journalUID] {
		if e.Seq > afterSeq && (limit <= 0 || len(out) < limit) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMembers struct{ s *memStore }

func (f fakeMembers) Add(_ context.Context, m models.Member) error {
	if f.s.members[m.JournalUID] == nil {
		f.s.members[m.JournalUID] = map[string][]byte{}
	}
	f.s.members[m.JournalUID][m.UserID] = m.WrappedKey
	return nil
}

func (f fakeMembers) Remove(_ context.Context, journalUID, userID string) error {
	delete(f.s.members[journalUID], userID)
	return nil
}

func (f fakeMembers) List(_ context.Context, journalUID string) ([]models.Member, error) {
	var out []models.Member
	for id, k := range f.s.members[journalUID] {
		out = append(out, models.Member{JournalUID: journalUID, UserID: id, WrappedKey: k})
	}
	return out, nil
}

// newMockDB returns a sqlmock DB; tests declare each transaction with expectTx.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}
