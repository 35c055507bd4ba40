package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/client"
	"github.com/dmitrijs2005/taskjournal/internal/client/config"
	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/client/services"
	"github.com/dmitrijs2005/taskjournal/internal/client/syncer"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeAuth struct {
	regUser string
	regPass []byte
	regErr  error

	onlineUser string
	onlinePass []byte
	onlineErr  error

	offlineUser string
	offlineErr  error

	sessionUser string
	sessionErr  error

	clearCalled bool
	closed      bool
}

func (f *fakeAuth) Register(_ context.Context, user string, pass []byte) error {
	f.regUser, f.regPass = user, append([]byte(nil), pass...)
	return f.regErr
}

func (f *fakeAuth) OnlineLogin(_ context.Context, user string, pass []byte) ([]byte, error) {
	f.onlineUser, f.onlinePass = user, append([]byte(nil), pass...)
	if f.onlineErr != nil {
		return nil, f.onlineErr
	}
	return []byte("master"), nil
}

func (f *fakeAuth) OfflineLogin(_ context.Context, user string, _ []byte) ([]byte, error) {
	f.offlineUser = user
	if f.offlineErr != nil {
		return nil, f.offlineErr
	}
	return []byte("master"), nil
}

func (f *fakeAuth) RestoreSession(context.Context) (string, error) {
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	if f.sessionUser == "" {
		return "", client.ErrLocalDataNotAvailable
	}
	return f.sessionUser, nil
}

func (f *fakeAuth) SaveTokens(context.Context, string, string) error { return nil }
func (f *fakeAuth) Ping(context.Context) error                       { return nil }
func (f *fakeAuth) Close(context.Context) error                      { f.closed = true; return nil }
func (f *fakeAuth) ClearOfflineData(context.Context) error {
	f.clearCalled = true
	return nil
}

type fakeAccounts struct {
	user string
	pass []byte
	err  error
}

func (f *fakeAccounts) Unlock(_ context.Context, username string, pw []byte) (syncer.Account, error) {
	f.user, f.pass = username, append([]byte(nil), pw...)
	if f.err != nil {
		return syncer.Account{}, f.err
	}
	return syncer.Account{Username: username, Secret: []byte("secret")}, nil
}

type fakeCollections struct {
	lists []models.LocalCollection

	created  []string
	renamed  map[string]string
	deleted  []string
	sharedTo map[string]string
	acc      syncer.Account
}

func (f *fakeCollections) List(context.Context) ([]models.LocalCollection, error) {
	return f.lists, nil
}

func (f *fakeCollections) Create(_ context.Context, acc syncer.Account, name, color string) (models.LocalCollection, error) {
	f.acc = acc
	f.created = append(f.created, name+"|"+color)
	c := models.LocalCollection{UID: fmt.Sprintf("uid-%d", len(f.lists)+1), Name: name, Color: color}
	f.lists = append(f.lists, c)
	return c, nil
}

func (f *fakeCollections) Rename(_ context.Context, acc syncer.Account, uid, name, _ string) error {
	f.acc = acc
	if f.renamed == nil {
		f.renamed = map[string]string{}
	}
	f.renamed[uid] = name
	return nil
}

func (f *fakeCollections) Delete(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeCollections) Share(_ context.Context, acc syncer.Account, uid, username string) error {
	f.acc = acc
	if f.sharedTo == nil {
		f.sharedTo = map[string]string{}
	}
	f.sharedTo[uid] = username
	return nil
}

type fakeTasks struct {
	tasks  map[int64]*models.Task
	nextID int64

	lastEdit services.TaskEdit
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[int64]*models.Task{}}
}

func (f *fakeTasks) Add(_ context.Context, uid string, t models.Task, parentID int64) (*models.Task, error) {
	parent, err := f.parentRemoteID(parentID)
	if err != nil {
		return nil, err
	}
	f.nextID++
	t.ID, t.CollectionUID, t.Dirty, t.ParentRemoteID = f.nextID, uid, true, parent
	f.tasks[t.ID] = &t
	return &t, nil
}

func (f *fakeTasks) parentRemoteID(id int64) (string, error) {
	if id == 0 {
		return "", nil
	}
	p, err := f.get(id)
	if err != nil {
		return "", err
	}
	if p.RemoteID == "" {
		p.RemoteID = fmt.Sprintf("r%d", id)
	}
	return p.RemoteID, nil
}

func (f *fakeTasks) get(id int64) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.Deleted {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTasks) Edit(_ context.Context, id int64, e services.TaskEdit) (*models.Task, error) {
	f.lastEdit = e
	t, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if e.Title != nil {
		t.Title = *e.Title
	}
	if e.Parent != nil {
		if t.ParentRemoteID, err = f.parentRemoteID(*e.Parent); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (f *fakeTasks) Complete(_ context.Context, id int64, done bool) (*models.Task, error) {
	t, err := f.get(id)
	if err != nil {
		return nil, err
	}
	t.CompletedAt = nil
	if done {
		now := time.Now()
		t.CompletedAt = &now
	}
	return t, nil
}

func (f *fakeTasks) Delete(_ context.Context, id int64) error {
	t, err := f.get(id)
	if err != nil {
		return err
	}
	t.Deleted = true
	return nil
}

func (f *fakeTasks) List(_ context.Context, uid string) ([]models.Task, error) {
	var out []models.Task
	for id := int64(1); id <= f.nextID; id++ {
		if t, ok := f.tasks[id]; ok && !t.Deleted && t.CollectionUID == uid {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeSyncer struct {
	results []syncer.SyncResult
	err     error
	acc     syncer.Account
}

func (f *fakeSyncer) Sync(_ context.Context, acc syncer.Account) ([]syncer.SyncResult, error) {
	f.acc = acc
	return f.results, f.err
}

// ---- harness ----

type harness struct {
	out         *bytes.Buffer
	auth        *fakeAuth
	accounts    *fakeAccounts
	collections *fakeCollections
	tasks       *fakeTasks
	syncer      *fakeSyncer

	built int
	cfg   *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(config.EnvPassword, "")
	t.Setenv(config.EnvEncryptionPassword, "")

	return &harness{
		out:         &bytes.Buffer{},
		auth:        &fakeAuth{sessionUser: "alice"},
		accounts:    &fakeAccounts{},
		collections: &fakeCollections{},
		tasks:       newFakeTasks(),
		syncer:      &fakeSyncer{},
	}
}

func (h *harness) factory(_ context.Context, cfg *config.Config) (*App, error) {
	h.built++
	h.cfg = cfg
	return &App{
		config:      cfg,
		logger:      logging.Nop{},
		out:         h.out,
		reader:      bufio.NewReader(strings.NewReader("")),
		authService: h.auth,
		accounts:    h.accounts,
		collections: h.collections,
		tasks:       h.tasks,
		syncer:      h.syncer,
	}, nil
}

func (h *harness) exec(args ...string) error {
	return Execute(context.Background(), args, h.factory)
}

func stubPassword(t *testing.T, pw string) *[]string {
	t.Helper()
	var prompts []string
	orig := getPassword
	getPassword = func(_ io.Writer, prompt string) ([]byte, error) {
		prompts = append(prompts, prompt)
		return []byte(pw), nil
	}
	t.Cleanup(func() { getPassword = orig })
	return &prompts
}

// ---- auth commands ----

func TestLogin_Online(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvPassword, "pw")

	require.NoError(t, h.exec("login", "alice"))

	assert.Equal(t, "alice", h.auth.onlineUser)
	assert.Equal(t, []byte("pw"), h.auth.onlinePass)
	assert.Empty(t, h.auth.offlineUser)
	assert.Contains(t, h.out.String(), "Logged in as alice")
	assert.True(t, h.auth.closed)
}

func TestLogin_OfflineFallback(t *testing.T) {
	h := newHarness(t)
	h.auth.onlineErr = fmt.Errorf("get salt error: %w", client.ErrUnavailable)
	prompts := stubPassword(t, "pw")

	require.NoError(t, h.exec("login", "alice"))

	assert.Equal(t, []string{"Password"}, *prompts)
	assert.Equal(t, "alice", h.auth.offlineUser)
	assert.Contains(t, h.out.String(), "offline credentials verified")
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness(t)
	h.auth.onlineErr = client.ErrUnauthorized
	t.Setenv(config.EnvPassword, "pw")

	err := h.exec("login", "alice")
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Empty(t, h.auth.offlineUser)
}

func TestRegister_UsernameSources(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		h := newHarness(t)
		t.Setenv(config.EnvPassword, "pw")

		require.NoError(t, h.exec("register", "--user", "bob"))
		assert.Equal(t, "bob", h.auth.regUser)
		assert.Equal(t, "bob", h.cfg.Username)
	})

	t.Run("prompt", func(t *testing.T) {
		h := newHarness(t)
		t.Setenv(config.EnvPassword, "pw")

		orig := getSimpleText
		getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return "carol", nil }
		t.Cleanup(func() { getSimpleText = orig })

		require.NoError(t, h.exec("register"))
		assert.Equal(t, "carol", h.auth.regUser)
		assert.Equal(t, []byte("pw"), h.auth.regPass)
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.exec("logout"))
	assert.True(t, h.auth.clearCalled)
}

// ---- list commands ----

func TestMklist_RequiresSession(t *testing.T) {
	h := newHarness(t)
	h.auth.sessionUser = ""

	err := h.exec("mklist", "Home")
	require.ErrorIs(t, err, errNotLoggedIn)
	assert.Empty(t, h.collections.created)
}

func TestMklist_UnlocksWithEncryptionPassword(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvEncryptionPassword, "enc")

	require.NoError(t, h.exec("mklist", "Home", "--color", "#00ff00"))

	assert.Equal(t, "alice", h.accounts.user)
	assert.Equal(t, []byte("enc"), h.accounts.pass)
	assert.Equal(t, []string{"Home|#00ff00"}, h.collections.created)
	assert.Equal(t, "alice", h.collections.acc.Username)
	assert.Contains(t, h.out.String(), "Created Home")
}

func TestMklist_WrongEncryptionPassword(t *testing.T) {
	h := newHarness(t)
	h.accounts.err = services.ErrWrongEncryptionPassword
	prompts := stubPassword(t, "nope")

	err := h.exec("mklist", "Home")
	require.ErrorIs(t, err, services.ErrWrongEncryptionPassword)
	assert.Equal(t, []string{"Encryption password"}, *prompts)
}

func TestListCommands_ResolveByNameOrUID(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvEncryptionPassword, "enc")
	h.collections.lists = []models.LocalCollection{
		{UID: "u1", Name: "Home"},
		{UID: "u2", Name: "Work", Shared: true},
	}

	require.NoError(t, h.exec("rename", "home", "House"))
	assert.Equal(t, map[string]string{"u1": "House"}, h.collections.renamed)

	require.NoError(t, h.exec("share", "u2", "bob"))
	assert.Equal(t, map[string]string{"u2": "bob"}, h.collections.sharedTo)

	require.NoError(t, h.exec("rmlist", "Work"))
	assert.Equal(t, []string{"u2"}, h.collections.deleted)

	err := h.exec("rmlist", "Garden")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestResolveList_Ambiguous(t *testing.T) {
	h := newHarness(t)
	h.collections.lists = []models.LocalCollection{
		{UID: "u1", Name: "Home"},
		{UID: "u2", Name: "home"},
	}

	err := h.exec("ls", "HOME")
	require.ErrorIs(t, err, common.ErrorValidation)

	require.NoError(t, h.exec("ls", "u2"))
}

func TestLists(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.exec("lists"))
	assert.Contains(t, h.out.String(), "No lists")

	h.out.Reset()
	h.collections.lists = []models.LocalCollection{{UID: "u1", Name: "Home", Shared: true}}
	require.NoError(t, h.exec("lists"))
	assert.Contains(t, h.out.String(), "u1  Home  shared")
}

// ---- task commands ----

func TestAddEditDoneRm(t *testing.T) {
	h := newHarness(t)
	h.collections.lists = []models.LocalCollection{{UID: "u1", Name: "Home"}}

	orig := getMultiline
	getMultiline = func(*bufio.Reader, string, io.Writer) (string, error) { return "two\nlines", nil }
	t.Cleanup(func() { getMultiline = orig })

	require.NoError(t, h.exec("add", "Home", "buy milk", "-p", "2", "--due", "2024-06-01", "--notes", "-"))
	added := h.tasks.tasks[1]
	require.NotNil(t, added)
	assert.Equal(t, "buy milk", added.Title)
	assert.Equal(t, 2, added.Priority)
	assert.Equal(t, "two\nlines", added.Notes)
	require.NotNil(t, added.DueAt)
	assert.Equal(t, "2024-06-01", added.DueAt.Format(time.DateOnly))
	assert.Contains(t, h.out.String(), "[ ] buy milk  (p2, due 2024-06-01, unsynced)")

	require.NoError(t, h.exec("edit", "1", "--title", "buy oat milk", "--no-due"))
	require.NotNil(t, h.tasks.lastEdit.Title)
	assert.Equal(t, "buy oat milk", *h.tasks.lastEdit.Title)
	assert.Nil(t, h.tasks.lastEdit.Notes)
	assert.Nil(t, h.tasks.lastEdit.Priority)
	assert.Nil(t, h.tasks.lastEdit.DueAt)
	assert.True(t, h.tasks.lastEdit.ClearDue)

	require.NoError(t, h.exec("done", "1"))
	assert.True(t, h.tasks.tasks[1].Completed())
	require.NoError(t, h.exec("done", "1", "--undo"))
	assert.False(t, h.tasks.tasks[1].Completed())

	require.NoError(t, h.exec("rm", "1"))
	assert.ErrorIs(t, h.exec("rm", "1"), common.ErrorNotFound)
}

func TestTaskCommands_BadInput(t *testing.T) {
	h := newHarness(t)
	h.collections.lists = []models.LocalCollection{{UID: "u1", Name: "Home"}}

	assert.ErrorIs(t, h.exec("rm", "abc"), common.ErrorValidation)
	assert.ErrorIs(t, h.exec("done", "0"), common.ErrorValidation)
	assert.ErrorIs(t, h.exec("add", "Home", "x", "--due", "tomorrow"), common.ErrorValidation)
	assert.Error(t, h.exec("add", "Home"))
}

func TestLs_OpenOnly(t *testing.T) {
	h := newHarness(t)
	h.collections.lists = []models.LocalCollection{{UID: "u1", Name: "Home"}}
	ctx := context.Background()

	_, err := h.tasks.Add(ctx, "u1", models.Task{Title: "open one"}, 0)
	require.NoError(t, err)
	_, err = h.tasks.Add(ctx, "u1", models.Task{Title: "closed one"}, 0)
	require.NoError(t, err)
	_, err = h.tasks.Complete(ctx, 2, true)
	require.NoError(t, err)

	require.NoError(t, h.exec("ls", "Home", "--open"))
	assert.Contains(t, h.out.String(), "open one")
	assert.NotContains(t, h.out.String(), "closed one")

	h.out.Reset()
	require.NoError(t, h.exec("ls", "Home"))
	assert.Contains(t, h.out.String(), "[x] closed one")
}

func TestSubtasks(t *testing.T) {
	h := newHarness(t)
	h.collections.lists = []models.LocalCollection{{UID: "u1", Name: "Home"}}

	require.NoError(t, h.exec("add", "Home", "groceries"))
	require.NoError(t, h.exec("add", "Home", "milk", "--parent", "1"))
	require.NoError(t, h.exec("add", "Home", "call the bank"))
	assert.Equal(t, "r1", h.tasks.tasks[2].ParentRemoteID)

	require.NoError(t, h.exec("edit", "3", "--parent", "2"))
	require.NotNil(t, h.tasks.lastEdit.Parent)
	assert.Equal(t, int64(2), *h.tasks.lastEdit.Parent)

	h.out.Reset()
	require.NoError(t, h.exec("ls", "Home"))
	assert.Equal(t, "Home\n"+
		"   1 [ ] groceries  (unsynced)\n"+
		"   2   [ ] milk  (unsynced)\n"+
		"   3     [ ] call the bank  (unsynced)\n", h.out.String())

	require.NoError(t, h.exec("edit", "3", "--no-parent"))
	require.NotNil(t, h.tasks.lastEdit.Parent)
	assert.Zero(t, *h.tasks.lastEdit.Parent)
	assert.Empty(t, h.tasks.tasks[3].ParentRemoteID)

	assert.Error(t, h.exec("edit", "3", "--parent", "1", "--no-parent"))
	assert.ErrorIs(t, h.exec("add", "Home", "x", "--parent", "9"), common.ErrorNotFound)
}

func TestTaskTree_OrphansAndCycles(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, RemoteID: "a", ParentRemoteID: "b"},
		{ID: 2, RemoteID: "b", ParentRemoteID: "a"},
		{ID: 3, RemoteID: "c", ParentRemoteID: "gone"},
		{ID: 4, RemoteID: "d", ParentRemoteID: "c"},
	}

	var got [][2]int64
	for _, r := range taskTree(tasks) {
		got = append(got, [2]int64{r.task.ID, int64(r.depth)})
	}
	assert.Equal(t, [][2]int64{{3, 0}, {4, 1}, {1, 0}, {2, 1}}, got)
}

// ---- sync ----

func TestSync_ReportsPerList(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvEncryptionPassword, "enc")
	h.syncer.results = []syncer.SyncResult{
		{CollectionUID: "u1", Name: "Home", Pulled: 3, Pushed: 1},
		{CollectionUID: "u2", Kind: syncer.KindVersionTooNew, Err: &cryptox.VersionTooNewError{Version: 9}},
	}

	err := h.exec("sync")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 lists failed to sync", err.Error())

	out := h.out.String()
	assert.Contains(t, out, "Home: pulled 3, pushed 1")
	assert.Contains(t, out, "u2: failed (version too new)")
	assert.Equal(t, "alice", h.syncer.acc.Username)
}

func TestSync_AllOK(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvEncryptionPassword, "enc")
	h.syncer.results = []syncer.SyncResult{{CollectionUID: "u1", Name: "Home"}}

	require.NoError(t, h.exec("sync"))
}

func TestSync_Interrupted(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvEncryptionPassword, "enc")
	h.syncer.err = context.Canceled

	assert.ErrorIs(t, h.exec("sync"), context.Canceled)
}

// ---- root ----

func TestHelpDoesNotBuildApp(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.exec("--help"))
	assert.Equal(t, 0, h.built)
}

func TestInvalidConfigStopsBeforeApp(t *testing.T) {
	h := newHarness(t)
	err := h.exec("lists", "--page-size", "0")
	require.Error(t, err)
	assert.Equal(t, 0, h.built)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.exec("frobnicate"))
}

func TestParseDue(t *testing.T) {
	d, err := parseDue("2024-06-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)))

	d, err = parseDue("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Local, d.Location())

	_, err = parseDue("06/01/2024")
	assert.True(t, errors.Is(err, common.ErrorValidation))
}

func TestNewApp_OpensStoreLazily(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = t.TempDir() + "/nested/client.db"
	cfg.LogFile = ""
	cfg.ServerEndpointAddr = "127.0.0.1:1"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	lists, err := app.collections.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lists)

	_, err = app.session(context.Background())
	assert.ErrorIs(t, err, errNotLoggedIn)

	require.NoError(t, app.Close(context.Background()))
}
