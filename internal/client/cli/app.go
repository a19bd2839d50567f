package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/notesync/internal/client/client"
	"github.com/dmitrijs2005/notesync/internal/client/config"
	"github.com/dmitrijs2005/notesync/internal/client/connectivity"
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/client/reconcile"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/client/services"
	"github.com/dmitrijs2005/notesync/internal/client/signals"
	"github.com/dmitrijs2005/notesync/internal/filex"
	"github.com/dmitrijs2005/notesync/internal/logging"
)

type sessionService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (bool, error)
	SignedIn() bool
	Username() string
}

type recordService[F any] interface {
	Create(ctx context.Context, fields F) (*models.Record[F], error)
	Update(ctx context.Context, localID string, fields F) (*models.Record[F], error)
	Get(ctx context.Context, localID string) (*models.Record[F], error)
	Delete(ctx context.Context, localID string) error
	Retry(ctx context.Context, localID string) error
	RetryAll(ctx context.Context) (int, error)
	List(ctx context.Context, query string) ([]models.Record[F], error)
	Summary(ctx context.Context) (services.Summary, error)
}

type taskService interface {
	recordService[models.TaskFields]
	ToggleComplete(ctx context.Context, localID string) (*models.Task, error)
}

type syncer interface {
	SyncNow(ctx context.Context) bool
	Busy() bool
}

type App struct {
	session sessionService
	notes   recordService[models.NoteFields]
	tasks   taskService
	sync    syncer
	online  func() bool
	logger  logging.Logger
	bus     *signals.Bus

	reader *bufio.Reader
	out    io.Writer

	// prepare runs before the REPL starts, background loops run beside it.
	prepare    func(ctx context.Context)
	background []func(ctx context.Context)
	closers    []io.Closer
}

// NewApp opens the local store and wires the sync machinery.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := filex.EnsureParentDir(cfg.LogFile); err != nil {
		return nil, fmt.Errorf("error preparing log file: %w", err)
	}

	logger, logCloser := logging.New(logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
		Level:      cfg.LogLevel,
		JSON:       true,
	})

	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	bus := signals.NewBus()

	var session *services.Session
	api := client.NewHTTPClient(cfg.ServerURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger),
		client.WithTokenListener(func(p client.TokenPair) { session.TokensChanged(p) }),
	)
	session = services.NewSession(api, metadata.NewSQLiteRepository(db), bus, logger)

	watcher := connectivity.NewWatcher(api, bus, logger, cfg.OnlineCheckInterval)

	opts := reconcile.Options{
		Online: watcher.Online,
		Policy: reconcile.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		Logger: logger,
	}
	notesRepo := records.NewNotesRepository(db)
	tasksRepo := records.NewTasksRepository(db)

	scheduler := reconcile.NewScheduler(reconcile.SchedulerConfig{
		Owner:    session.OwnerID,
		Online:   watcher.Online,
		Bus:      bus,
		Interval: cfg.FlushInterval,
		Logger:   logger,
	},
		reconcile.NewEngine[models.NoteFields]("notes", notesRepo, client.NewNotesResource(api), opts),
		reconcile.NewEngine[models.TaskFields]("tasks", tasksRepo, client.NewTasksResource(api), opts),
	)

	svc := services.ServiceConfig{Owner: session.OwnerID, Notify: scheduler.OnLocalMutation, Logger: logger}

	return &App{
		session: session,
		notes:   services.NewNoteService(notesRepo, svc),
		tasks:   services.NewTaskService(tasksRepo, svc),
		sync:    scheduler,
		online:  watcher.Online,
		logger:  logger,
		bus:     bus,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		prepare: func(ctx context.Context) {
			// The first probe runs before the scheduler subscribes to the
			// bus so a restored session is synced right away.
			watcher.Check(ctx)
		},
		background: []func(ctx context.Context){watcher.Run, scheduler.Run},
		closers:    []io.Closer{db, logCloser},
	}, nil
}

// Run restores the previous session, starts the background loops and
// blocks in the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.close()

	if a.prepare != nil {
		a.prepare(ctx)
	}

	if ok, err := a.session.Restore(ctx); err != nil {
		a.logger.Error(ctx, "failed to restore session", "error", err)
	} else if ok {
		a.printf("Welcome back, %s\n", a.session.Username())
	}

	var wg sync.WaitGroup
	for _, fn := range a.background {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	a.printf("notesync (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))

	// Closing the bus lets the scheduler finish its background flushes
	// before the loops are cancelled.
	if a.bus != nil {
		a.bus.Close()
	}
	cancel()
	wg.Wait()
}

func (a *App) close() {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && a.session.SignedIn()
}

func (a *App) isOnline() bool {
	return a.online == nil || a.online()
}

// status is the prompt prefix, e.g. "alice online".
func (a *App) status() string {
	s := "offline"
	if a.isOnline() {
		s = "online"
	}
	if a.sync != nil && a.sync.Busy() {
		s += ", syncing"
	}
	if a.isLoggedIn() {
		s = a.session.Username() + " " + s
	}
	return s
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
