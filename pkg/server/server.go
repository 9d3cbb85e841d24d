package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/server/middleware"
	"github.com/territoryops/recon/pkg/server/store"
)

// Server holds the router and the dependencies shared by the endpoints.
type Server struct {
	Config           func() *config.ReconConfig
	Router           *mux.Router
	Logger           *logrus.Logger
	Clashes          *clash.Service
	HealthStore      store.HealthStore
	ResolutionsStore store.ResolutionsStore
	JWTMiddleware    *middleware.JWTAuthenticator
	srv              *http.Server
}

func NewServer(
	cfg func() *config.ReconConfig,
	clashes *clash.Service,
	health store.HealthStore,
	resolutions store.ResolutionsStore,
	logger *logrus.Logger,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler:      handlers.LoggingHandler(logger.Out, router),
		Addr:         host + ":" + port,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Config:           cfg,
		Router:           router,
		Logger:           logger,
		Clashes:          clashes,
		HealthStore:      health,
		ResolutionsStore: resolutions,
		JWTMiddleware:    middleware.NewJWTAuthenticator(cfg),
		srv:              srv,
	}
}

// Handler returns the access-logged router.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
