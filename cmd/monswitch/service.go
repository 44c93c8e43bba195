package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/1broseidon/monswitch/internal/config"
	"github.com/1broseidon/monswitch/internal/display"
	"github.com/1broseidon/monswitch/internal/history"
	"github.com/1broseidon/monswitch/internal/ipc"
	"github.com/1broseidon/monswitch/internal/platform"
	"github.com/1broseidon/monswitch/internal/store"
	"github.com/1broseidon/monswitch/internal/switcher"
	"github.com/1broseidon/monswitch/internal/topology"
)

// profileService is the profile API shared by the daemon client and the
// in-process switcher.
type profileService interface {
	Save(ctx context.Context, name string) error
	Load(ctx context.Context, name string) (switcher.LoadResult, error)
	Undo(ctx context.Context) (switcher.LoadResult, error)
	Delete(name string) error
	List() ([]string, error)
	Exists(name string) (bool, error)
	Details(name string) ([]topology.MonitorDetails, error)
	Current(ctx context.Context) ([]topology.MonitorDetails, error)
	PowerOff(ctx context.Context) error
}

// remoteService forwards every operation to a running daemon.
type remoteService struct {
	client *ipc.Client
}

func (r remoteService) Save(_ context.Context, name string) error {
	return r.client.SaveProfile(name)
}

func (r remoteService) Load(_ context.Context, name string) (switcher.LoadResult, error) {
	return r.client.LoadProfile(name)
}

func (r remoteService) Undo(context.Context) (switcher.LoadResult, error) {
	return r.client.Undo()
}

func (r remoteService) Delete(name string) error {
	return r.client.DeleteProfile(name)
}

func (r remoteService) List() ([]string, error) {
	return r.client.ListProfiles()
}

func (r remoteService) Exists(name string) (bool, error) {
	names, err := r.client.ListProfiles()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, store.SanitizeName(name)), nil
}

func (r remoteService) Details(name string) ([]topology.MonitorDetails, error) {
	return r.client.ProfileDetails(name)
}

func (r remoteService) Current(context.Context) ([]topology.MonitorDetails, error) {
	return r.client.CurrentMonitors()
}

func (r remoteService) PowerOff(context.Context) error {
	return r.client.PowerOff()
}

// localService owns a display session and the stores behind a switcher.
type localService struct {
	*switcher.Service
	session *platform.Session
	history *history.DB
}

func (l *localService) Close() {
	if l.history != nil {
		l.history.Close()
	}
	l.session.Close()
}

// newLocalService opens the display subsystem and builds a switcher from cfg.
func newLocalService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*localService, error) {
	session, err := platform.Open(cfg.Display, cfg.XAuthority)
	if err != nil {
		return nil, err
	}
	svc, db, err := buildSwitcher(ctx, session.Driver, cfg, logger)
	if err != nil {
		session.Close()
		return nil, err
	}
	return &localService{Service: svc, session: session, history: db}, nil
}

// buildSwitcher wires a switcher over driver. The returned history database
// is nil when history is disabled or cannot be opened.
func buildSwitcher(ctx context.Context, driver display.Driver, cfg *config.Config, logger *slog.Logger) (*switcher.Service, *history.DB, error) {
	profiles, err := store.NewFileStore(cfg.ProfilesPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	var db *history.DB
	if cfg.History.Enabled {
		db, err = history.Open(ctx, cfg.HistoryPath())
		if err != nil {
			logger.Warn("undo history unavailable", "path", cfg.HistoryPath(), "error", err)
			db = nil
		}
	}

	opts := switcher.Options{
		Adapter: display.NewAdapter(driver, display.Options{
			Logger:        logger,
			PowerOffDelay: cfg.PowerOffDelay(),
		}),
		Store:       profiles,
		HistoryKeep: cfg.History.Keep,
		Logger:      logger,
	}
	if db != nil {
		opts.History = db
	}
	return switcher.New(opts), db, nil
}

// openService returns the daemon when one is running, otherwise an
// in-process service. direct skips the daemon. Without needsDisplay the
// in-process service only serves stored profiles and never connects to the
// display. The close func is never nil.
func openService(ctx context.Context, cfg *config.Config, logger *slog.Logger, direct, needsDisplay bool) (profileService, func(), error) {
	if !direct {
		client := ipc.NewClient()
		err := client.Ping()
		if err == nil {
			return remoteService{client: client}, func() {}, nil
		}
		if !errors.Is(err, ipc.ErrDaemonUnavailable) {
			return nil, nil, err
		}
		logger.Debug("daemon not running, using display directly")
	}
	if !needsDisplay {
		profiles, err := store.NewFileStore(cfg.ProfilesPath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open profile store: %w", err)
		}
		return switcher.New(switcher.Options{Store: profiles, Logger: logger}), func() {}, nil
	}
	local, err := newLocalService(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return local, local.Close, nil
}

// paletteOps adapts a profileService to the palette's operations.
type paletteOps struct {
	svc profileService
}

func (p paletteOps) List(context.Context) ([]string, error) { return p.svc.List() }

func (p paletteOps) Exists(_ context.Context, name string) (bool, error) { return p.svc.Exists(name) }

func (p paletteOps) Save(ctx context.Context, name string) error { return p.svc.Save(ctx, name) }

func (p paletteOps) Load(ctx context.Context, name string) error {
	_, err := p.svc.Load(ctx, name)
	return err
}

func (p paletteOps) Delete(_ context.Context, name string) error { return p.svc.Delete(name) }

func (p paletteOps) Undo(ctx context.Context) error {
	_, err := p.svc.Undo(ctx)
	return err
}

func (p paletteOps) PowerOff(ctx context.Context) error { return p.svc.PowerOff(ctx) }
