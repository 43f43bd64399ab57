package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbruno96/tabnews-clone/internal/activation"
	activationrepo "github.com/vbruno96/tabnews-clone/internal/activation/repo"
	"github.com/vbruno96/tabnews-clone/internal/authentication"
	"github.com/vbruno96/tabnews-clone/internal/controller"
	"github.com/vbruno96/tabnews-clone/internal/email"
	"github.com/vbruno96/tabnews-clone/internal/migration"
	"github.com/vbruno96/tabnews-clone/internal/password"
	"github.com/vbruno96/tabnews-clone/internal/router"
	"github.com/vbruno96/tabnews-clone/internal/session"
	sessionrepo "github.com/vbruno96/tabnews-clone/internal/session/repo"
	"github.com/vbruno96/tabnews-clone/internal/status"
	statusrepo "github.com/vbruno96/tabnews-clone/internal/status/repo"
	"github.com/vbruno96/tabnews-clone/internal/user"
	userrepo "github.com/vbruno96/tabnews-clone/internal/user/repo"
	"github.com/vbruno96/tabnews-clone/pkg/database"
)

const shutdownGrace = 5 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) migrator() *migration.Migrator {
	dbCfg := a.dbConfig()
	return migration.NewMigrator(func(ctx context.Context) (*sql.DB, error) {
		return database.NewConnection(ctx, dbCfg)
	}, a.sugar)
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar := a.sugar
	sugar.Info("starting api")

	db, err := database.Connect(ctx, a.dbConfig())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	mailer, err := email.NewSMTPSender(email.Config{
		Host:     a.cfg.SMTPHost,
		Port:     a.cfg.SMTPPort,
		User:     a.cfg.SMTPUser,
		Password: a.cfg.SMTPPassword,
		Secure:   a.cfg.SMTPSecure,
	})
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	users := user.NewUserService(db, userrepo.NewUserRepo(db), password.NewBcrypt(a.cfg.PasswordCost))
	sessions := session.NewService(db, sessionrepo.NewSessionRepo(db))
	activations := activation.NewService(db, activationrepo.NewTokenRepo(db), users, mailer, a.cfg.WebserverOrigin)
	auth := authentication.NewService(users, password.NewBcrypt(a.cfg.PasswordCost))
	statuses := status.NewService(statusrepo.NewRepo(db), a.cfg.DatabaseName)

	ctrl := controller.New(sessions, users, sugar, a.cfg.Production)
	handler := router.RegisterRoutes(sugar, router.Handlers{
		Controller: ctrl,
		Users:      user.NewHandler(users, activations, sugar),
		Sessions:   session.NewHandler(sessions, auth, users, ctrl, sugar),
		Activation: activation.NewHandler(activations, sugar),
		Migrations: migration.NewHandler(a.migrator()),
		Status:     status.NewHandler(statuses, sugar),
	})

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("http server listening", "addr", a.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
	return nil
}
