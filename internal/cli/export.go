package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/filedrop/filedrop/internal/batch"
	"github.com/filedrop/filedrop/internal/catalog"
	"github.com/filedrop/filedrop/internal/config"
	"github.com/filedrop/filedrop/internal/diskspace"
	"github.com/filedrop/filedrop/internal/export"
	"github.com/filedrop/filedrop/internal/notify"
	"github.com/filedrop/filedrop/internal/remote"
	"github.com/filedrop/filedrop/internal/storage"
)

func newExportCmd() *cobra.Command {
	var (
		dir        string
		account    string
		noNotify   bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "export <file-id>...",
		Short: "Export files to the Downloads folder as one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, dir, account, noNotify, noProgress)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default: configured downloads dir)")
	cmd.Flags().StringVar(&account, "account", "", "Account identity the batch belongs to")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Suppress the desktop notification")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable per-file progress bars")

	return cmd
}

func runExport(cmd *cobra.Command, fileIDs []string, dir, account string, noNotify, noProgress bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.DownloadsDir
	}

	strategy, err := storage.Detect(dir)
	if err != nil {
		return err
	}
	logger.Debug().
		Str("dir", strategy.Dir()).
		Str("strategy", strategy.Kind()).
		Msg("Selected storage strategy")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	client := remote.NewClient(cfg.RemoteBaseURL, logger)
	checker := diskspace.NewVolumeChecker(strategy.Dir(), cfg.SpaceSafetyMargin)

	engineOpts := []export.Option{export.WithMaxNameAttempts(cfg.CollisionRetryCap)}
	if !noProgress {
		engineOpts = append(engineOpts, export.WithProgress(&barSink{}))
	}
	engine := export.NewEngine(strategy, client, logger, engineOpts...)

	var notifierOpts []notify.NotifierOption
	if noNotify || !cfg.Notifications {
		notifierOpts = append(notifierOpts, notify.Disabled())
	}
	notifier := notify.NewNotifier(strategy.Dir(), logger, notifierOpts...)

	worker := batch.NewWorker(cat, checker, engine, client, notifier, logger)
	job := batch.NewJob(fileIDs, account)

	out := worker.Run(cmd.Context(), job)

	total := out.Attempted
	if out.Aborted {
		total = len(fileIDs)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d file(s) to %s\n",
		out.Succeeded, total, strategy.Dir())

	if out.Aborted {
		return fmt.Errorf("batch aborted: insufficient space in %s", strategy.Dir())
	}
	if out.Succeeded == 0 && out.Attempted > 0 {
		return fmt.Errorf("no files could be exported")
	}
	return nil
}

// barSink renders one progress bar per exported file. The export engine is
// strictly sequential, so a single bar at a time is enough.
type barSink struct {
	bar *progressbar.ProgressBar
}

func (s *barSink) Start(name string, total int64) {
	if total <= 0 {
		total = -1 // spinner for unknown sizes
	}
	s.bar = progressbar.DefaultBytes(total, name)
}

func (s *barSink) Advance(n int) {
	if s.bar != nil {
		_ = s.bar.Add(n)
	}
}

func (s *barSink) Finish() {
	if s.bar != nil {
		_ = s.bar.Finish()
		s.bar = nil
	}
}
