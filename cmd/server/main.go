package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"phonelogin/internal/api"
	"phonelogin/internal/app"
	"phonelogin/internal/certs"
	"phonelogin/internal/config"
	"phonelogin/internal/utils"
)

func main() {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log, closeLog, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		boot.Fatal().Err(err).Msg("open logger")
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build app")
	}
	defer a.Close()

	nav := api.RedirectNavigator{}
	handler := api.NewHandler(a.NewLogin(nav), a.NewGuard(nav), a.Store, log)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, a.Metrics.Registry(), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.HTTP.TLSCert != "" {
		cm := certs.NewCertManager(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey)
		tlsCfg, leaf, err := cm.TLSConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("load tls certificate")
		}
		if cm.ExpiresWithin(leaf, 30*24*time.Hour) {
			log.Warn().Time("not_after", leaf.NotAfter).Msg("tls certificate expires soon")
		}
		srv.TLSConfig = tlsCfg
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Bool("tls", srv.TLSConfig != nil).Msg("server running")
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
}
