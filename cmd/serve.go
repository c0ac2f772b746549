package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kestrelsec/kestrel/config"
	"github.com/kestrelsec/kestrel/internal/api"
	"github.com/kestrelsec/kestrel/internal/pscan"
	"github.com/kestrelsec/kestrel/internal/rules"
	"github.com/kestrelsec/kestrel/internal/users"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

// serveCmd is the cobra command that starts the kestrel sidecar
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the kestrel passive scanning sidecar",
	Run: func(cmd *cobra.Command, _ []string) {
		err := serve(cmd.Context())
		cobra.CheckErr(err)
	},
}

// init registers the serve command and its flags on the root command
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().String("config", "./config/.config.yaml", "config file location")
}

// serve initializes dependencies and starts the kestrel API server
func serve(ctx context.Context) error {
	cfgPath := k.String("config")

	cfg, err := config.Load(&cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug || k.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	registry, userSvc, err := setupContexts(cfg)
	if err != nil {
		return fmt.Errorf("setting up contexts: %w", err)
	}

	engine, err := setupEngine(cfg, registry, userSvc)
	if err != nil {
		return fmt.Errorf("setting up scan engine: %w", err)
	}

	engine.Start(ctx)
	defer engine.Stop()

	handler := api.NewRouter(api.RouterConfig{
		Engine:      engine,
		Registry:    registry,
		MaxBodySize: cfg.Server.MaxBodySize,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().
		Str("listen", cfg.Server.Listen).
		Int("contexts", len(cfg.Contexts)).
		Msg("starting kestrel sidecar")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

// setupContexts builds the context registry and user-management service from
// the declarative context configuration. Context identifiers are assigned in
// declaration order.
func setupContexts(cfg *config.Config) (*webctx.Registry, users.Service, error) {
	registry := webctx.NewRegistry()
	manager := users.NewManager()

	haveUsers := false

	for i, decl := range cfg.Contexts {
		if decl.Name == "" {
			return nil, nil, fmt.Errorf("context %d: %w", i, config.ErrContextNameRequired)
		}

		id := i + 1

		pages, err := buildCustomPages(decl)
		if err != nil {
			return nil, nil, fmt.Errorf("context %q: %w", decl.Name, err)
		}

		techs := make([]webctx.Tech, 0, len(decl.Technologies))
		for _, t := range decl.Technologies {
			techs = append(techs, webctx.Tech(t))
		}

		opts := []webctx.Option{
			webctx.WithIncludePatterns(decl.Includes...),
			webctx.WithExcludePatterns(decl.Excludes...),
			webctx.WithCustomPages(pages...),
		}
		if len(techs) > 0 {
			opts = append(opts, webctx.WithTechSet(webctx.NewTechSet(techs...)))
		}

		c, err := webctx.New(id, decl.Name, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("context %q: %w", decl.Name, err)
		}
		registry.Add(c)

		for j, u := range decl.Users {
			manager.EnsureAuthManager(id).Add(users.User{
				ID:        j + 1,
				ContextID: id,
				Name:      u.Name,
				Enabled:   !u.Disabled,
			})
			haveUsers = true
		}

		log.Debug().Str("context", decl.Name).Int("id", id).Msg("registered context")
	}

	// Without any configured users the subsystem is treated as absent, the
	// same way an uninstalled user-management extension would be.
	if !haveUsers {
		return registry, nil, nil
	}

	return registry, manager, nil
}

// buildCustomPages converts the declared custom page signatures of a context.
func buildCustomPages(decl config.ContextConfig) ([]webctx.CustomPage, error) {
	pages := make([]webctx.CustomPage, 0, len(decl.CustomPages))

	for _, pc := range decl.CustomPages {
		kind, ok := webctx.ParsePageKind(pc.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownPageKind, pc.Kind)
		}

		var page webctx.CustomPage
		if pc.Regex {
			var err error
			page, err = webctx.NewCustomPageRegex(kind, pc.Content)
			if err != nil {
				return nil, fmt.Errorf("custom page pattern %q: %w", pc.Content, err)
			}
		} else {
			page = webctx.NewCustomPage(kind, pc.Content)
		}

		if pc.Disabled {
			page = page.Disabled()
		}

		pages = append(pages, page)
	}

	return pages, nil
}

// setupEngine builds the passive scan engine with the built-in rules.
func setupEngine(cfg *config.Config, registry *webctx.Registry, userSvc users.Service) (*pscan.Engine, error) {
	techRule, err := rules.NewTechFingerprint()
	if err != nil {
		return nil, err
	}

	return pscan.NewEngine(registry, userSvc,
		pscan.WithRules(
			rules.NewServerError(),
			rules.NewHiddenNotFound(),
			rules.NewCookieScope(),
			techRule,
			rules.NewUserDisclosure(),
		),
		pscan.WithWorkers(cfg.Scan.Workers),
		pscan.WithQueueSize(cfg.Scan.QueueSize),
		pscan.WithMaxAlerts(cfg.Scan.MaxAlerts),
	), nil
}
