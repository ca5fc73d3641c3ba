package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"imgrab/pkg/auth"
	"imgrab/pkg/config"
	"imgrab/pkg/errors"
	"imgrab/pkg/logger"
	"imgrab/pkg/media"
	"imgrab/pkg/retry"
	"imgrab/pkg/storage"
	"imgrab/pkg/transport"
	"imgrab/pkg/ui"
)

var (
	// Grab command flags
	grabOutput     string
	grabOverwrite  bool
	grabDryRun     bool
	grabClientID   string
	grabMaxRetries int
	grabRateLimit  int
	grabNotify     bool
)

// grabCmd represents the grab command
var grabCmd = &cobra.Command{
	Use:   "grab <url>...",
	Short: "Download every item behind one or more links",
	Long: `Download every item behind one or more Imgur links.

Items are fetched one at a time in the order the API lists them. A failed item
is retried and then skipped; the run continues with the next one. The exit
status is non-zero if any link or item could not be downloaded.`,
	Example: `  # Download an album into ./downloads/AbCdE
  imgrab grab https://imgur.com/a/AbCdE

  # Several links, flat into a custom directory
  imgrab grab -o ~/Pictures https://imgur.com/XyZ12 https://imgur.com/gallery/QwErT

  # List item locations without downloading
  imgrab grab --dry-run https://imgur.com/a/AbCdE`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGrab,
}

func init() {
	rootCmd.AddCommand(grabCmd)

	grabCmd.Flags().StringVarP(&grabOutput, "output", "o", "", "output directory for downloads (default: ./downloads)")
	grabCmd.Flags().BoolVar(&grabOverwrite, "overwrite", false, "overwrite files that already exist")
	grabCmd.Flags().BoolVarP(&grabDryRun, "dry-run", "n", false, "print item locations without downloading")
	grabCmd.Flags().StringVar(&grabClientID, "client-id", "", "Imgur application client id")
	grabCmd.Flags().IntVar(&grabMaxRetries, "max-retries", 3, "maximum attempts per failed operation")
	grabCmd.Flags().IntVar(&grabRateLimit, "rate-limit", 0, "client-side requests per minute (0 disables)")
	grabCmd.Flags().BoolVar(&grabNotify, "notify", false, "send a desktop notification when done")
}

func runGrab(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout(), quiet, cfg.Logging.NoColor)
	if cfg.Imgur.ClientID == "" {
		lookupClientID(cfg, auth.NewManager(), log)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := newGrabber(cfg, log, printer)
	if err != nil {
		return err
	}
	g.dryRun = grabDryRun

	printer.Banner()
	err = g.Run(ctx, args)

	if stderrors.Is(err, errors.ErrMissingCredential) {
		auth.WriteClientIDGuide(cmd.ErrOrStderr())
	}
	if grabNotify && !grabDryRun {
		if nerr := ui.NewNotifier().Notify("imgrab", g.tracker.Summary()); nerr != nil {
			log.WithError(nerr).Debug("desktop notification failed")
		}
	}
	return err
}

// lookupClientID fills in the client id from the environment or keychain
func lookupClientID(cfg *config.Config, credentials *auth.Manager, log logger.Logger) {
	id, source, err := credentials.Lookup()
	if err != nil {
		log.WithError(err).Debug("no stored client id")
		return
	}
	cfg.Imgur.ClientID = id
	log.WithFields(map[string]interface{}{
		"source":    source,
		"client_id": auth.MaskCredential(id),
	}).Info("using stored client id")
}

// grabber drives one run: resolve each link, pull its tasks and save them
type grabber struct {
	cfg      *config.Config
	registry *media.Registry
	base     *transport.Builder
	store    *storage.Manager
	printer  *ui.Printer
	tracker  *ui.StatusTracker
	log      logger.Logger
	dryRun   bool
}

func newGrabber(cfg *config.Config, log logger.Logger, printer *ui.Printer) (*grabber, error) {
	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.OverwriteExisting)
	if err != nil {
		return nil, err
	}
	return &grabber{
		cfg:      cfg,
		registry: registry,
		base:     transport.FromConfig(cfg, log),
		store:    store,
		printer:  printer,
		tracker:  ui.NewStatusTracker(),
		log:      log,
	}, nil
}

// Run grabs every link in order. Failures are collected, not fatal: the
// returned error lists every link and item that could not be downloaded.
func (g *grabber) Run(ctx context.Context, links []string) error {
	logger.LogComponentStart(g.log, "grab", map[string]interface{}{
		"links":      len(links),
		"output_dir": g.store.GetOutputDir(),
		"dry_run":    g.dryRun,
	})

	var result *multierror.Error
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		g.printer.Info("Source", link)
		if err := g.grabLink(ctx, link); err != nil {
			g.printer.Error(link, err)
			result = multierror.Append(result, err)
		}
	}

	if !g.dryRun {
		g.printer.Info("Done", g.tracker.Summary())
	}
	g.log.WithFields(map[string]interface{}{
		"saved":  g.store.Summary(),
		"failed": g.tracker.Failed,
	}).Info("grab finished")
	logger.LogComponentStop(g.log, "grab", "completed")

	return result.ErrorOrNil()
}

func (g *grabber) retryConfig(ctx context.Context) *retry.Config {
	rc := retry.FromConfig(g.cfg.Retry, g.log)
	rc.Context = ctx
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		if wait, ok := errors.RetryAfter(err); ok {
			logger.LogRateLimit(g.log, "grab", wait)
		}
		g.printer.Dim(fmt.Sprintf("  attempt %d failed, retrying in %s", attempt, delay))
	}
	return rc
}

// grabLink resolves one link and drains it. A page failure re-runs the whole
// resolution; pages are one-shot, so there is nothing finer to re-issue.
func (g *grabber) grabLink(ctx context.Context, link string) error {
	var itemErrs *multierror.Error

	err := retry.Do(func() error {
		itemErrs = nil

		res, err := g.registry.Resolve(link)
		if err != nil {
			return err
		}
		client, err := res.Provider.ConfigureTransport(g.base)
		if err != nil {
			return err
		}

		log := g.log.WithFields(map[string]interface{}{
			"provider": res.Provider.Name(),
			"variant":  media.VariantOf(res.Accessor),
			"source":   res.Accessor.ID(),
		})

		if g.dryRun {
			return g.listLocations(res.Accessor, client)
		}

		tp := media.NewTaskProvider(res.Accessor, client, log)
		defer tp.Close()
		return g.drain(ctx, tp, sourceFolder(g.cfg, res.Accessor), &itemErrs)
	}, g.retryConfig(ctx))
	if err != nil {
		return err
	}
	return itemErrs.ErrorOrNil()
}

// drain saves every task. It returns only a page failure; item failures are
// retried, then recorded in itemErrs. Cancellation is checked before each pull
// so a stopped run issues no further requests.
func (g *grabber) drain(ctx context.Context, tp *media.TaskProvider, folder string, itemErrs **multierror.Error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		task, err := tp.Next()
		if stderrors.Is(err, media.ErrDone) {
			return nil
		}
		if err != nil {
			var itemErr *errors.ItemError
			if !stderrors.As(err, &itemErr) {
				return err
			}
			task, err = g.reopen(ctx, tp, itemErr)
			if err != nil {
				g.tracker.RecordFailure()
				logger.LogTask(g.log, itemErr.Location, "", 0, err)
				g.printer.Error(itemErr.Location, err)
				*itemErrs = multierror.Append(*itemErrs, err)
				continue
			}
		}

		if err := g.save(task, folder); err != nil {
			*itemErrs = multierror.Append(*itemErrs, err)
		}
	}
}

// reopen re-issues a failed item. The failure already observed counts as the
// first attempt so the configured attempt budget is not exceeded.
func (g *grabber) reopen(ctx context.Context, tp *media.TaskProvider, first *errors.ItemError) (*media.Task, error) {
	var observed error = first
	return retry.DoWithResult(func() (*media.Task, error) {
		if observed != nil {
			err := observed
			observed = nil
			return nil, err
		}
		return tp.Open(first.Location)
	}, g.retryConfig(ctx))
}

// save writes a task to disk and closes it
func (g *grabber) save(task *media.Task, folder string) error {
	defer task.Close()

	name := task.Context().Filename()
	progress := g.printer.NewByteProgress(task.Size(), name)
	path, n, err := g.store.Save(folder, name, progress.Wrap(task))
	progress.Finish()

	switch {
	case stderrors.Is(err, storage.ErrExists):
		g.tracker.RecordSkip()
		logger.LogTask(g.log, task.Location(), "", 0, nil)
		g.printer.Warning("exists " + path)
		return nil
	case err != nil:
		g.tracker.RecordFailure()
		logger.LogTask(g.log, task.Location(), path, n, err)
		g.printer.Error(name, err)
		return &errors.ItemError{Location: task.Location(), Err: err}
	}

	g.tracker.RecordDownload(n)
	logger.LogTask(g.log, task.Location(), path, n, nil)
	g.printer.Success(fmt.Sprintf("%s (%s)", path, ui.FormatSize(n)))
	return nil
}

// listLocations prints every item location without fetching any item
func (g *grabber) listLocations(accessor media.Accessor, client transport.Getter) error {
	out := g.printer.Writer()
	for {
		page, err := accessor.NextPage(client)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, location := range page {
			fmt.Fprintln(out, location)
		}
	}
}

// sourceFolder groups album and gallery items under their identifier
func sourceFolder(cfg *config.Config, accessor media.Accessor) string {
	if !cfg.Output.CreateSourceFolders {
		return ""
	}
	switch media.VariantOf(accessor) {
	case "album", "gallery":
		return accessor.ID()
	}
	return ""
}
