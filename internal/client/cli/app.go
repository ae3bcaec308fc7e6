package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/dmitrijs2005/gophsend/internal/client/client"
	"github.com/dmitrijs2005/gophsend/internal/client/config"
	"github.com/dmitrijs2005/gophsend/internal/client/lifecycle"
	"github.com/dmitrijs2005/gophsend/internal/client/sink"
	"github.com/dmitrijs2005/gophsend/internal/client/transfer"
	"github.com/dmitrijs2005/gophsend/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  *client.Repositories
	files  *lifecycle.Manager
	coord  *transfer.Coordinator
	out    io.Writer
}

// newSink picks the download destination from the configuration.
func newSink(ctx context.Context, c *config.Config) (sink.Sink, error) {
	if c.UseS3() {
		return sink.NewS3Sink(ctx, sink.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Prefix:    c.S3Prefix,
		})
	}
	return sink.NewLocalSink(c.DownloadDir)
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	repos, err := client.InitDatabase(ctx, c.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	out, err := newSink(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("init sink: %w", err)
	}

	hc := api.NewHTTPClient(c.ServerURL,
		api.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		api.WithLogger(logger),
		api.WithDownloadAttempts(c.DownloadAttempts),
	)

	files := lifecycle.NewManager(hc, repos.Files, lifecycle.WithLogger(logger))
	if err := files.Load(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("load owned files: %w", err)
	}

	coord := transfer.NewCoordinator(
		transfer.NewSender(hc, c.DefaultExpiry),
		transfer.NewReceiver(hc),
		files,
		repos.Metadata,
		out,
		transfer.WithPollInterval(c.PollInterval),
		transfer.WithCoordinatorLogger(logger),
	)

	return &App{config: c, logger: logger, repos: repos, files: files, coord: coord, out: os.Stdout}, nil
}

// Run starts the coordinator and the event printer, then blocks in the REPL
// until the user exits, stdin closes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.repos.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.coord.Run(ctx); err != nil {
			a.logger.Error(ctx, "coordinator stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		printEvents(a.coord.Events())
	}()

	printlnFn("Welcome to GophSend CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))

	cancel()
	wg.Wait()
	return nil
}

func (a *App) status() string {
	snap, err := a.coord.Snapshot(context.Background())
	if err != nil {
		return "stopped"
	}
	if snap.Active == nil {
		return snap.Status.String()
	}
	p := snap.Active.Progress()
	if p.Total <= 0 {
		return snap.Status.String()
	}
	return fmt.Sprintf("%s %d%%", snap.Status, int(p.Ratio()*100))
}
