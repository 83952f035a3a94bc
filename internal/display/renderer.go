// Package display owns everything the user sees: the live single-line
// progress renderer, its plain-text fallback for piped output, and the
// styled result panels printed when an operation finishes.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

const (
	redrawInterval = 100 * time.Millisecond
	clearLine      = "\r\033[2K"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSink picks the progress sink matching out: the live renderer when
// out is a terminal, one line per event otherwise. The returned stop
// function halts the renderer and clears its status line.
func NewSink(out *os.File) (port.ProgressSink, func()) {
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		r := NewRenderer(out)
		r.Start()
		return r, r.Stop
	}
	return NewQuiet(out), func() {}
}

type phase int

const (
	phaseIdle phase = iota
	phaseFetch
	phaseDownload
	phaseVerify
	phaseRemove
	phaseRepair
)

// Renderer is the terminal progress sink. Sink calls mutate its state
// under a mutex and a background ticker repaints one status line every
// 100 ms with a carriage-return redraw, so hot paths never block on
// terminal writes.
type Renderer struct {
	out io.Writer

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	creator string
	ph      phase
	spin    int

	pages, items            int
	existing, total, needed int
	downloaded              int

	verifyMedia     model.MediaType
	verifyChecked   int
	verifyInvalid   int
	verifyIncorrect int

	opDone, opTotal int
}

var _ port.ProgressSink = (*Renderer)(nil)

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Start launches the repaint loop. Calling Start twice is a no-op.
func (r *Renderer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.loop(r.stopCh, r.doneCh)
}

// Stop ends the repaint loop and clears the status line.
func (r *Renderer) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)
	<-doneCh

	r.mu.Lock()
	fmt.Fprint(r.out, clearLine)
	r.mu.Unlock()
}

func (r *Renderer) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.repaint()
		}
	}
}

func (r *Renderer) repaint() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spin = (r.spin + 1) % len(spinnerFrames)
	fmt.Fprint(r.out, clearLine+r.statusLine())
}

// statusLine composes the current one-line view. Callers hold r.mu.
func (r *Renderer) statusLine() string {
	if r.creator == "" && r.ph == phaseIdle {
		return ""
	}
	frame := spinnerFrames[r.spin]
	name := creatorStyle.Render(r.creator)

	switch r.ph {
	case phaseFetch:
		return fmt.Sprintf("%s %s %s", frame, name,
			mutedStyle.Render(fmt.Sprintf("fetching page %d, %d items", r.pages, r.items)))
	case phaseDownload:
		return fmt.Sprintf("%s %s %s", frame, name,
			fmt.Sprintf("%d/%d downloaded, %d existing", r.downloaded, r.needed, r.existing))
	case phaseVerify:
		return fmt.Sprintf("%s %s %s", frame, name,
			fmt.Sprintf("%s checked %d, %d invalid, %d incorrect",
				strings.ToLower(r.verifyMedia.String()), r.verifyChecked, r.verifyInvalid, r.verifyIncorrect))
	case phaseRemove:
		return fmt.Sprintf("%s %s removing %d/%d", frame, name, r.opDone, r.opTotal)
	case phaseRepair:
		return fmt.Sprintf("%s %s redownloading %d/%d", frame, name, r.opDone, r.opTotal)
	}
	return fmt.Sprintf("%s %s", frame, name)
}

// writeLine prints a persistent line above the status line.
func (r *Renderer) writeLine(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, clearLine+line+"\n")
}

func (r *Renderer) StartCreator(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creator = name
	r.ph = phaseIdle
	r.pages, r.items = 0, 0
	r.existing, r.total, r.needed = 0, 0, 0
	r.downloaded = 0
	r.verifyChecked, r.verifyInvalid, r.verifyIncorrect = 0, 0, 0
	r.opDone, r.opTotal = 0, 0
}

func (r *Renderer) StartFetch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseFetch
	r.pages, r.items = 0, 0
}

func (r *Renderer) FetchProgress(pages, items int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseFetch
	r.pages, r.items = pages, items
}

func (r *Renderer) FetchDone(pages, items int) {
	r.mu.Lock()
	r.pages, r.items = pages, items
	creator := r.creator
	r.mu.Unlock()
	r.writeLine(fmt.Sprintf("%s %s fetched %d items in %d pages",
		okStyle.Render("✓"), creatorStyle.Render(creator), items, pages))
}

func (r *Renderer) PlanReady(existing, total, needed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseDownload
	r.existing, r.total, r.needed = existing, total, needed
	r.downloaded = 0
}

func (r *Renderer) DownloadTick(done int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseDownload
	r.downloaded = done
}

func (r *Renderer) VerifyTick(media model.MediaType, checked, invalid, incorrect int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseVerify
	r.verifyMedia = media
	r.verifyChecked = checked
	r.verifyInvalid = invalid
	r.verifyIncorrect = incorrect
}

func (r *Renderer) RemoveTick(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseRemove
	r.opDone, r.opTotal = done, total
}

func (r *Renderer) RepairTick(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ph = phaseRepair
	r.opDone, r.opTotal = done, total
}

func (r *Renderer) CreatorDone(name string) {
	r.writeLine(fmt.Sprintf("%s %s done", okStyle.Render("✓"), creatorStyle.Render(name)))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creator = ""
	r.ph = phaseIdle
}

func (r *Renderer) Message(msg string) {
	r.writeLine(msg)
}

// Quiet is the non-terminal progress sink: every event becomes its own
// plain line, which keeps piped and redirected output greppable.
type Quiet struct {
	mu  sync.Mutex
	out io.Writer
}

var _ port.ProgressSink = (*Quiet)(nil)

func NewQuiet(out io.Writer) *Quiet {
	return &Quiet{out: out}
}

func (q *Quiet) line(format string, a ...any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fmt.Fprintf(q.out, format+"\n", a...)
}

func (q *Quiet) StartCreator(name string) {
	q.line("processing %s", name)
}

func (q *Quiet) StartFetch() {
	q.line("fetching api data")
}

func (q *Quiet) FetchProgress(pages, items int) {
	q.line("fetched page %d, %d items", pages, items)
}

func (q *Quiet) FetchDone(pages, items int) {
	q.line("fetch complete: %d items in %d pages", items, pages)
}

func (q *Quiet) PlanReady(existing, total, needed int) {
	q.line("existing %d of %d, downloading %d", existing, total, needed)
}

func (q *Quiet) DownloadTick(done int) {
	q.line("downloaded %d", done)
}

func (q *Quiet) VerifyTick(media model.MediaType, checked, invalid, incorrect int) {
	q.line("%s checked %d, %d invalid, %d incorrect", strings.ToLower(media.String()), checked, invalid, incorrect)
}

func (q *Quiet) RemoveTick(done, total int) {
	q.line("removed %d/%d", done, total)
}

func (q *Quiet) RepairTick(done, total int) {
	q.line("redownloaded %d/%d", done, total)
}

func (q *Quiet) CreatorDone(name string) {
	q.line("finished %s", name)
}

func (q *Quiet) Message(msg string) {
	q.line("%s", msg)
}
