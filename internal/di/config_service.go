// Package di assembles a transcribestream.Client from configuration and a
// credentials provider using a samber/do/v2 injector, for applications that
// want DI-managed construction instead of calling the constructors by hand.
package di

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/javer/aws-transcribe-streaming/config"
)

// Params seeds the container with the inputs that cannot be derived from
// the environment alone.
type Params struct {
	Region      string
	ProfilePath string // optional; "" skips session-profile loading
	ProfileName string // "" uses the profile file's declared default
}

func provideParams(p Params) func(do.Injector) (*Params, error) {
	return func(do.Injector) (*Params, error) {
		return &p, nil
	}
}

// ConfigService wraps the loaded session-profile file with hot-reload
// support. It uses atomic.Pointer for lock-free reads, so a session
// started mid-reload always sees one consistent snapshot.
type ConfigService struct {
	profiles atomic.Pointer[config.File]
	selected atomic.Pointer[config.Profile]

	watcher     *config.Watcher
	profileName string
	path        string
	logger      zerolog.Logger
}

// Profiles returns the current session-profile file, or nil if no
// ProfilePath was configured.
func (c *ConfigService) Profiles() *config.File {
	return c.profiles.Load()
}

// Selected returns the profile resolved from Params.ProfileName (or the
// file's declared default), reflecting the most recent reload. Zero value
// if no ProfilePath was configured.
func (c *ConfigService) Selected() config.Profile {
	if p := c.selected.Load(); p != nil {
		return *p
	}
	return config.Profile{}
}

// StartWatching begins watching the session-profile file for changes,
// atomically swapping in the reloaded file and re-resolving the selected
// profile on each settled edit. A no-op if ProfilePath was unset or the
// watcher failed to construct. Call once the container is fully built;
// cancel ctx to stop watching.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	c.watcher.OnReload(func(f *config.File) error {
		selected, ok := f.Profile(c.profileName)
		if !ok {
			return fmt.Errorf("di: profile %q not found in %s", c.profileName, c.path)
		}
		c.profiles.Store(f)
		c.selected.Store(&selected)
		c.logger.Info().Str("path", c.path).Msg("session profiles hot-reloaded")
		return nil
	})

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			c.logger.Error().Err(err).Msg("session profile watcher error")
		}
	}()
}

// Shutdown implements do.Shutdowner, stopping the watcher when the
// container is torn down.
func (c *ConfigService) Shutdown() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// NewConfigService loads the session-profile file named by Params, if any,
// resolves Params.ProfileName (or the file's declared default) against it,
// and constructs -- but does not start -- a hot-reload watcher. A missing
// ProfilePath is not an error: callers without session profiles pass
// StreamConfig values directly to Client.Start.
func NewConfigService(i do.Injector) (*ConfigService, error) {
	params := do.MustInvoke[*Params](i)
	logger := do.MustInvoke[*LoggerService](i)

	c := &ConfigService{
		profileName: params.ProfileName,
		path:        params.ProfilePath,
		logger:      logger.Logger,
	}
	if params.ProfilePath == "" {
		return c, nil
	}

	if _, err := os.Stat(params.ProfilePath); err != nil {
		return nil, err
	}

	f, err := config.Load(params.ProfilePath)
	if err != nil {
		return nil, err
	}

	selected, ok := f.Profile(params.ProfileName)
	if !ok {
		return nil, fmt.Errorf("di: profile %q not found in %s", params.ProfileName, params.ProfilePath)
	}
	c.profiles.Store(f)
	c.selected.Store(&selected)

	watcher, err := config.NewWatcher(params.ProfilePath, config.WithWatcherLogger(logger.Logger))
	if err != nil {
		logger.Logger.Warn().Err(err).Str("path", params.ProfilePath).
			Msg("session profile watcher creation failed, hot-reload disabled")
	} else {
		c.watcher = watcher
	}

	return c, nil
}
