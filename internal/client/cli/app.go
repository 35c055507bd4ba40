package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/client"
	"github.com/dmitrijs2005/taskjournal/internal/client/config"
	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/client/services"
	"github.com/dmitrijs2005/taskjournal/internal/client/store"
	"github.com/dmitrijs2005/taskjournal/internal/client/syncer"
	"github.com/dmitrijs2005/taskjournal/internal/client/vtodo"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/filex"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
)

var errNotLoggedIn = errors.New("not logged in, run login first")

// Input helpers are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

type accountService interface {
	Unlock(ctx context.Context, username string, encryptionPassword []byte) (syncer.Account, error)
}

type collectionService interface {
	List(ctx context.Context) ([]models.LocalCollection, error)
	Create(ctx context.Context, acc syncer.Account, name, color string) (models.LocalCollection, error)
	Rename(ctx context.Context, acc syncer.Account, uid, name, color string) error
	Delete(ctx context.Context, uid string) error
	Share(ctx context.Context, acc syncer.Account, uid, username string) error
}

type taskService interface {
	Add(ctx context.Context, collectionUID string, t models.Task, parentID int64) (*models.Task, error)
	Edit(ctx context.Context, id int64, e services.TaskEdit) (*models.Task, error)
	Complete(ctx context.Context, id int64, done bool) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, collectionUID string) ([]models.Task, error)
}

type synchronizer interface {
	Sync(ctx context.Context, acc syncer.Account) ([]syncer.SyncResult, error)
}

// App holds the services one CLI invocation works with.
type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
	reader *bufio.Reader
	db     *sql.DB

	authService services.AuthService
	accounts    accountService
	collections collectionService
	tasks       taskService
	syncer      synchronizer
}

// AppFactory builds the App for a parsed configuration.
type AppFactory func(ctx context.Context, cfg *config.Config) (*App, error)

// NewApp opens the local database, connects the journal client and wires
// the services.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel).With("app", "cli")

	dbPath, err := filex.EnsureParentDir(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	gc, err := client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	auth := services.NewAuthService(gc, db)
	gc.OnTokens(func(accessToken, refreshToken string) {
		if err := auth.SaveTokens(context.Background(), accessToken, refreshToken); err != nil {
			logger.Error(context.Background(), "failed to save tokens", "error", err)
		}
	})

	st := store.New(db)
	sy := syncer.New(gc, st, vtodo.NewCodec(cfg.ProdID), syncer.Options{
		PageSize:           cfg.PageSize,
		PushBatchSize:      cfg.PushBatchSize,
		MaxConflictRetries: cfg.MaxConflictRetries,
	}, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		out:         os.Stdout,
		reader:      bufio.NewReader(os.Stdin),
		db:          db,
		authService: auth,
		accounts:    services.NewAccountService(gc, logger),
		collections: services.NewCollectionService(gc, st, logger),
		tasks:       services.NewTaskService(st),
		syncer:      sy,
	}, nil
}

// Close releases the connection and the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.authService != nil {
		errs = append(errs, a.authService.Close(ctx))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// username returns the explicit argument, the configured account or a
// prompted one, in that order.
func (a *App) username(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if a.config != nil && a.config.Username != "" {
		return a.config.Username, nil
	}
	return getSimpleText(a.reader, "Username", a.out)
}

func (a *App) password() ([]byte, error) {
	if pw, ok := config.Password(); ok {
		return pw, nil
	}
	return getPassword(a.out, "Password")
}

// session restores the saved login into the client.
func (a *App) session(ctx context.Context) (string, error) {
	username, err := a.authService.RestoreSession(ctx)
	if errors.Is(err, client.ErrLocalDataNotAvailable) {
		return "", errNotLoggedIn
	}
	return username, err
}

// unlock restores the session and opens the account keys with the
// encryption password.
func (a *App) unlock(ctx context.Context) (syncer.Account, error) {
	username, err := a.session(ctx)
	if err != nil {
		return syncer.Account{}, err
	}

	pw, ok := config.EncryptionPassword()
	if !ok {
		pw, err = getPassword(a.out, "Encryption password")
		if err != nil {
			return syncer.Account{}, err
		}
	}
	defer common.WipeByteArray(pw)

	return a.accounts.Unlock(ctx, username, pw)
}

// resolveList finds a local list by uid or, case-insensitively, by name.
func (a *App) resolveList(ctx context.Context, ref string) (models.LocalCollection, error) {
	lists, err := a.collections.List(ctx)
	if err != nil {
		return models.LocalCollection{}, err
	}

	var byName []models.LocalCollection
	for _, c := range lists {
		if c.UID == ref {
			return c, nil
		}
		if strings.EqualFold(c.Name, ref) {
			byName = append(byName, c)
		}
	}

	switch len(byName) {
	case 0:
		return models.LocalCollection{}, fmt.Errorf("list %q: %w", ref, common.ErrorNotFound)
	case 1:
		return byName[0], nil
	default:
		return models.LocalCollection{}, fmt.Errorf("%w: %d lists are named %q, use the uid", common.ErrorValidation, len(byName), ref)
	}
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad task id %q", common.ErrorValidation, s)
	}
	return id, nil
}

// parseDue accepts RFC 3339 timestamps and local dates.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad due date %q, use YYYY-MM-DD", common.ErrorValidation, s)
	}
	return t, nil
}

// readNotes turns "-" into notes read from the input.
func (a *App) readNotes(v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	return getMultiline(a.reader, "Notes", a.out)
}

func formatTask(t models.Task) string {
	return formatTaskAt(t, 0)
}

// formatTaskAt indents the task by its depth in the subtask tree.
func formatTaskAt(t models.Task, depth int) string {
	mark := " "
	if t.Completed() {
		mark = "x"
	}

	var extra []string
	if t.Priority > 0 {
		extra = append(extra, fmt.Sprintf("p%d", t.Priority))
	}
	if t.DueAt != nil {
		extra = append(extra, "due "+t.DueAt.Local().Format(time.DateOnly))
	}
	if t.Dirty || t.Deleted {
		extra = append(extra, "unsynced")
	}

	s := fmt.Sprintf("%4d %s[%s] %s", t.ID, strings.Repeat("  ", depth), mark, t.Title)
	if len(extra) > 0 {
		s += "  (" + strings.Join(extra, ", ") + ")"
	}
	return s
}
