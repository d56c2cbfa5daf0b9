package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bookmarkd/bookmarkd/internal/config"
	"github.com/bookmarkd/bookmarkd/internal/db"
	"github.com/bookmarkd/bookmarkd/internal/service"
	"github.com/bookmarkd/bookmarkd/internal/transport"
)

func main() {
	fx.New(
		fx.Provide(
			NewLogger,
			config.NewConfig,
			db.NewGormClient,
			service.NewAuth,
			service.NewBookmark,
			service.NewUser,
			transport.NewHTTPServer,
		),
		fx.Invoke(func(server *transport.HTTPServer) {}),
	).Run()
}

func NewLogger() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
