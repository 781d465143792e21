package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/emotes-portal/internal/api"
	"github.com/AlexZinkM/emotes-portal/internal/client"
	"github.com/AlexZinkM/emotes-portal/internal/config"
	"github.com/AlexZinkM/emotes-portal/internal/handler"
	"github.com/AlexZinkM/emotes-portal/internal/idl"
	"github.com/AlexZinkM/emotes-portal/internal/keys"
	"github.com/AlexZinkM/emotes-portal/internal/logger"
	"github.com/AlexZinkM/emotes-portal/internal/model"
	"github.com/AlexZinkM/emotes-portal/internal/session"
	"github.com/AlexZinkM/emotes-portal/internal/wallet"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "start the HTTP server",
	Action: func(cctx *cli.Context) error {
		if err := config.Init(); err != nil {
			return err
		}
		cfg := config.Get()

		log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := config.PromptForPassword(); err != nil {
			return err
		}
		defer config.ClearPassword()

		return runServer(cctx.Context, cfg, log)
	},
}

func runServer(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	password, err := config.GetPasswordBytes()
	if err != nil {
		return err
	}
	defer clear(password)

	base, err := keys.LoadBaseAccount(cfg.BaseAccountFilePath, password)
	if err != nil {
		return fmt.Errorf("failed to load base account: %w", err)
	}
	defer clear(base.PrivateKey)

	doc, err := idl.Load(cfg.IDLPath)
	if err != nil {
		return err
	}
	programID, err := doc.ProgramID()
	if err != nil {
		return err
	}
	commitment, err := cfg.Commitment()
	if err != nil {
		return err
	}

	provider, closeProvider, err := loadProvider(cfg, password, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	adapter := wallet.NewAdapter(provider, log)
	factory := client.NewFactory(cfg.SolanaRPCURL, commitment, programID, adapter, log)
	build := func(s wallet.Session) (session.AccountClient, error) {
		c, err := factory.BuildClient(s)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	ctrl := session.New(adapter, build, base, log)
	defer ctrl.Close()

	log.Info("starting session",
		zap.String("rpc", cfg.SolanaRPCURL),
		zap.String("commitment", string(commitment)),
		zap.Stringer("program", programID),
		zap.Stringer("baseAccount", base.PublicKey()),
	)
	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.WithRequestLog(api.SetupRouter(handler.NewSessionHandler(ctrl)), log),
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warn("received shutdown", zap.Stringer("signal", sig))
		case <-ctx.Done():
			log.Warn("received shutdown")
		}

		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutting down HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("server listening", zap.String("addr", srv.Addr))
	log.Info("Swagger UI available", zap.String("url", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("Graceful shutdown successful")
	return nil
}

// loadProvider opens the wallet key file if one is configured.
// No configured or existing file means the environment has no wallet.
func loadProvider(cfg *config.Config, password []byte, log *zap.Logger) (wallet.Provider, func(), error) {
	noop := func() {}
	if cfg.WalletFilePath == "" {
		log.Info("no wallet key file configured")
		return nil, noop, nil
	}

	key, err := keys.LoadKey(cfg.WalletFilePath, model.KeyKindWallet, password)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("wallet key file not found", zap.String("path", cfg.WalletFilePath))
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, fmt.Errorf("failed to load wallet key: %w", err)
	}

	trust, err := wallet.LoadTrustStore(cfg.WalletTrustFile)
	if err != nil {
		clear(key)
		return nil, noop, err
	}

	var approver wallet.Approver = wallet.NewTerminalApprover()
	if cfg.WalletAutoApprove {
		approver = wallet.AutoApprove
	}

	p := wallet.NewKeystoreProvider(key, cfg.WalletOrigin, trust, approver)
	return p, p.Close, nil
}
