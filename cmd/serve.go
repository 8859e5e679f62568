package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ccm/internal/server"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP API and blocks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		r.config.Server.Port = int(cmd.Int("port"))
	}
	if cmd.Bool("transactional") {
		r.config.Links.Transactional = true
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting server",
		"addr", r.config.Server.Addr(),
		"transactional_links", r.links.Transactional(),
		"empty_list_status", r.emptyListStatus())

	srv := server.New(r.config.Server.Addr(), r.handler(), shared.WithLogger(r.logger, "component", "server"))
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// handler builds the HTTP handler over the opened store.
func (r *Runner) handler() http.Handler {
	logger := shared.WithLogger(r.logger, "component", "http")
	api := server.NewAPI(r.clients, r.contacts, r.links, r.emptyListStatus(), logger)
	return server.NewHandler(r.config.Server, api, server.NewHealthHandler(r.store), logger)
}

func (r *Runner) emptyListStatus() int {
	if r.config.Server.EmptyListStatus == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusOK
}
