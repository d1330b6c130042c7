package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/buildinfo"
	"github.com/matzehuels/matchthumb/pkg/cache"
	"github.com/matzehuels/matchthumb/pkg/config"
	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/jobs"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
	"github.com/matzehuels/matchthumb/pkg/render/text"
	"github.com/matzehuels/matchthumb/pkg/video"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and key prefixes.
	appName = "matchthumb"

	// defaultExt is the thumbnail extension when only an output directory is given.
	defaultExt = "jpg"
)

// Environment variables used as flag defaults.
const (
	envRedisAddr = "MATCHTHUMB_REDIS_ADDR"
	envMongoURI  = "MATCHTHUMB_MONGO_URI"
	envFFmpeg    = "MATCHTHUMB_FFMPEG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is bound to the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		configPath: config.DefaultPath,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Matchthumb composes match thumbnails from a template",
		Long:         `Matchthumb renders tournament match thumbnails from a layered template: background images, two player sprites, foreground images and rotated text labels.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.DefaultPath, "template document (json, toml or yaml)")

	root.AddCommand(c.composeCommand())
	root.AddCommand(c.filenameCommand())
	root.AddCommand(c.spritesCommand())
	root.AddCommand(c.trimCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// loadStore loads the template document named by --config.
func (c *CLI) loadStore() (*config.Store, error) {
	return config.Load(c.configPath, config.WithLogger(c.Logger))
}

// newRunner loads the configuration and creates a pipeline runner over it.
// With noCache, every layer is decoded and rendered on each composition.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := c.loadStore()
	if err != nil {
		return nil, err
	}
	if noCache {
		return pipeline.NewRunner(store, cache.NewNullImageCache(), text.NewNullRenderer(), c.Logger), nil
	}
	return pipeline.NewRunner(store, nil, nil, c.Logger), nil
}

// newTrimmer creates the ffmpeg wrapper.
func (c *CLI) newTrimmer(ffmpeg string) *video.Trimmer {
	return video.NewTrimmer(ffmpeg, c.Logger)
}

// Job store backends for --store.
const (
	storeMemory = "memory"
	storeRedis  = "redis"
	storeMongo  = "mongo"
)

// storeOptions selects and configures the job store.
type storeOptions struct {
	backend   string
	redisAddr string
	mongoURI  string
}

// newJobStore connects the configured job store.
func newJobStore(ctx context.Context, opts storeOptions) (jobs.Store, error) {
	switch opts.backend {
	case "", storeMemory:
		return jobs.NewMemoryStore(), nil
	case storeRedis:
		return jobs.NewRedisStore(ctx, jobs.RedisConfig{Addr: opts.redisAddr, Prefix: appName + ":job:"})
	case storeMongo:
		return jobs.NewMongoStore(ctx, jobs.MongoConfig{URI: opts.mongoURI, Database: appName})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store %q (must be one of: memory, redis, mongo)", opts.backend)
	}
}

// envOr returns the value of the environment variable key, or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
