package setup

import (
	"github.com/arbor-dev/arbor/internal/config"
	"github.com/arbor-dev/arbor/internal/handler"
	"github.com/arbor-dev/arbor/internal/jwt"
	"github.com/arbor-dev/arbor/internal/markdown"
	"github.com/arbor-dev/arbor/internal/middleware"
	"github.com/arbor-dev/arbor/internal/notify"
	"github.com/arbor-dev/arbor/internal/service"
	"github.com/arbor-dev/arbor/internal/storage/pg"
	"github.com/arbor-dev/arbor/internal/utils"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Handler *handler.Handler
	Auth    *middleware.Auth
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	dispatcher := notify.NewLogDispatcher()
	dirty := service.NewDirtyPropagator(storage)

	thread := service.NewThread(storage, &utils.ThreadValidator{}, dirty, dispatcher)
	fetcher := service.NewTreeFetcher(storage, markdown.New(), cfg.Public.MaxTreeDepth)

	h := handler.New(thread, fetcher)

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Handler: h,
		Auth:    middleware.NewAuth(jwtService),
	}, nil
}
