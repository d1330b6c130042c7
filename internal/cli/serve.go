package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/buildinfo"
	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/jobs"
	"github.com/matzehuels/matchthumb/pkg/observability"
	"github.com/matzehuels/matchthumb/pkg/video"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command, which exposes compositions and
// trims as queued jobs over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		store     storeOptions
		workers   int
		ffmpeg    string
		outputDir string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP job server",
		Long: `Run an HTTP server that queues thumbnail and video jobs.

Endpoints:
  GET  /health      configuration generation and version
  GET  /sprites     selectable sprite identifiers
  POST /jobs        queue a job, answers 202 with the job
  GET  /jobs/{id}   job state
  POST /preview     render a thumbnail and return it as PNG
  POST /reload      reload the template document`,
		Example: `  matchthumb serve --addr :8080 --output-dir out
  matchthumb serve --store redis --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeCompositionIO, err, "create %s", outputDir)
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			jobStore, err := newJobStore(cmd.Context(), store)
			if err != nil {
				return err
			}
			dispatcher := jobs.NewDispatcher(runner, c.newTrimmer(ffmpeg), jobStore, jobs.Options{
				Workers: workers,
				Logger:  c.Logger,
			})
			defer dispatcher.Close()

			counters := &observability.Counters{}
			observability.SetPipelineHooks(counters)
			observability.SetCacheHooks(counters)
			observability.SetJobHooks(counters)

			srv := &server{runner: runner, dispatcher: dispatcher, outputDir: outputDir, counters: counters, logger: c.Logger}
			c.Logger.Info("listening", "addr", addr, "version", buildinfo.Short(), "store", store.backend, "workers", workers)
			return listen(cmd.Context(), addr, srv.routes())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&store.backend, "store", storeMemory, "job store: memory, redis or mongo")
	cmd.Flags().StringVar(&store.redisAddr, "redis-addr", envOr(envRedisAddr, "localhost:6379"), "redis address (env "+envRedisAddr+")")
	cmd.Flags().StringVar(&store.mongoURI, "mongo-uri", envOr(envMongoURI, "mongodb://localhost:27017"), "mongodb URI (env "+envMongoURI+")")
	cmd.Flags().IntVar(&workers, "workers", 2, "concurrent jobs")
	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", envOr(envFFmpeg, video.DefaultFFmpeg), "ffmpeg executable (env "+envFFmpeg+")")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", ".", "directory for generated files")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "decode and render every layer from scratch")

	return cmd
}

// listen serves h on addr until ctx is done, then shuts down gracefully.
func listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
