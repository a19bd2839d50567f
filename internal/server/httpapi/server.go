// Package httpapi exposes the REST API the sync client talks to:
// /api/auth/*, /api/health/ and one resource per record collection.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

type UserService interface {
	Register(ctx context.Context, username string, password []byte) (*models.User, error)
	Login(ctx context.Context, username string, password []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type RecordService interface {
	List(ctx context.Context, collection, ownerID string) ([]models.Record, error)
	Create(ctx context.Context, collection, ownerID string, body []byte) (*models.Record, bool, error)
	Update(ctx context.Context, collection, ownerID string, id int64, body []byte) (*models.Record, error)
	Delete(ctx context.Context, collection, ownerID string, id int64) error
}

// Options tune the middleware stack.
type Options struct {
	SecretKey       string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

type Server struct {
	address string
	logger  logging.Logger
	users   UserService
	records RecordService
	opts    Options
}

func NewServer(addr string, l logging.Logger, us UserService, rs RecordService, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		address: addr,
		logger:  l.With("module", "http_server"),
		users:   us,
		records: rs,
		opts:    opts,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/health/", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.opts.RateLimitRPS, s.opts.RateLimitBurst))
		r.Post("/api/auth/register/", s.handleRegister)
		r.Post("/api/auth/token/", s.handleToken)
		r.Post("/api/auth/refresh/", s.handleRefresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtAuth([]byte(s.opts.SecretKey)))
		for _, c := range models.Collections {
			r.Route("/api/"+c, s.collectionRoutes(c))
		}
	})

	return r
}

func (s *Server) collectionRoutes(collection string) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.handleList(collection))
		r.Post("/", s.handleCreate(collection))
		r.Put("/{id}/", s.handleUpdate(collection))
		r.Delete("/{id}/", s.handleDelete(collection))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
