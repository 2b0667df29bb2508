package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	bookexport "github.com/alnah/go-bookexport"
	"github.com/alnah/go-bookexport/internal/config"
	"github.com/alnah/go-bookexport/internal/hints"
	"github.com/alnah/go-bookexport/internal/logging"
)

// commandContext carries the environment and the global flag values
// into every subcommand. The project file and the logger are loaded
// once, on first use, so commands that never need them pay nothing.
type commandContext struct {
	env *Environment

	configFlag *string
	logLevel   *string
	logJSON    *bool
	noColor    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(env *Environment, configFlag, logLevel *string, logJSON, noColor *bool) *commandContext {
	return &commandContext{
		env:        env,
		configFlag: configFlag,
		logLevel:   logLevel,
		logJSON:    logJSON,
		noColor:    noColor,
	}
}

// ensureConfig loads book.toml once. An explicit --config path must
// exist; otherwise the file is searched upward from the working
// directory, and defaults apply when none is found.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		startDir, err := c.env.Getwd()
		if err != nil {
			c.configErr = fmt.Errorf("resolving working directory: %w", err)
			return
		}
		cfg, path, found, err := config.Load(*c.configFlag, startDir)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				err = fmt.Errorf("%w%s", err, hints.ForConfigNotFound())
			}
			c.configErr = err
			return
		}
		c.config = cfg
		if found {
			c.configPath = path
		}
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger from the global flags.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		format := logging.FormatConsole
		if *c.logJSON {
			format = logging.FormatJSON
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:   *c.logLevel,
			Format:  format,
			Writer:  c.env.Stderr,
			NoColor: *c.noColor,
		})
	})
	return c.logger, c.loggerErr
}

// service builds an export service wired to the environment. Run
// timeouts come from the per-run Config, not from here.
func (c *commandContext) service() (*bookexport.Service, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return bookexport.New(
		bookexport.WithLogger(logger),
		bookexport.WithClock(c.env.Now),
		bookexport.WithLookPath(c.env.LookPath),
	), nil
}
