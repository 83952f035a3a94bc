package cli

import (
	"net/http"
	"os"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/civitai"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/config"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/display"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/download"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/fslock"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/library"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/probe"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/processor"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/repair"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/track"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/validate"
)

// app bundles the components a command runs against. Every component
// that reports progress shares the one sink, and every component that
// records extension changes shares the one tracker, so the closing
// summary sees the whole run.
type app struct {
	settings *config.Settings
	creators *config.CreatorsFile

	sink     port.ProgressSink
	stopSink func()
	printer  *display.Printer

	tracker    *track.Tracker
	library    *library.Manager
	client     *civitai.Client
	downloader *download.Downloader
	processor  *processor.Processor
	validator  *validate.Validator
	repairer   *repair.Manager
}

func newApp(debug bool) (*app, error) {
	logger.Init(debug)

	settings, err := config.Load(config.DefaultSettingsFile)
	if err != nil {
		return nil, err
	}

	sink, stopSink := display.NewSink(os.Stdout)
	printer := display.NewPrinter(os.Stdout, os.Stdin)

	tracker := track.NewTracker()
	lib := library.NewManager(settings.DefaultOutput, settings.ImageExtensions, settings.VideoExtensions)

	client := civitai.NewClient(
		&http.Client{Timeout: settings.RequestTimeoutDur()},
		settings.APIKey,
		settings.MaxRetries,
		settings.RetryBackoff(),
		sink,
	)

	// The download client carries no global timeout; large files would
	// trip it mid-stream. Attempts are bounded by the queue's timeout
	// and the run context instead.
	dl := download.NewDownloader(&http.Client{}, download.Options{
		DownloadTimeout: settings.DownloadTimeoutDur(),
		MaxRetries:      settings.MaxRetries,
		Backoff:         settings.RetryBackoff(),
		RateLimit:       settings.RateLimit,
		MemoryThreshold: settings.MemoryThresholdBytes,
		LockPolicy:      settings.DownloadLockPolicy,
		ImageExtensions: settings.ImageExtensions,
		VideoExtensions: settings.VideoExtensions,
	}, tracker, fslock.New(), sink)
	dl.SetFolderInvalidator(lib.InvalidateFolder)

	validator := validate.NewValidator(probe.NewFFProbe(""), tracker, sink,
		settings.ImageExtensions, settings.VideoExtensions)

	return &app{
		settings:   settings,
		creators:   config.NewCreatorsFile(config.DefaultCreatorsFile),
		sink:       sink,
		stopSink:   stopSink,
		printer:    printer,
		tracker:    tracker,
		library:    lib,
		client:     client,
		downloader: dl,
		processor:  processor.NewProcessor(client, lib, dl, sink),
		validator:  validator,
		repairer:   repair.NewManager(lib, dl, sink, printer.Confirm),
	}, nil
}

// close halts the live renderer so its status line never bleeds into
// the result panels.
func (a *app) close() {
	if a.stopSink != nil {
		a.stopSink()
	}
}
