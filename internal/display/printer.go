package display

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/result"
)

// Printer renders result panels and confirmation prompts.
type Printer struct {
	out io.Writer
	in  io.Reader
}

func NewPrinter(out io.Writer, in io.Reader) *Printer {
	return &Printer{out: out, in: in}
}

// PrintSummary renders the closing panel for an operation. The summary
// set is closed; an unknown type here is a programming error.
func (p *Printer) PrintSummary(s result.Summary) {
	switch s := s.(type) {
	case result.UpdateSummary:
		p.printUpdate(s)
	case result.VerifySummary:
		p.printVerify(s)
	case result.RepairSummary:
		p.printRepair(s)
	default:
		panic(fmt.Sprintf("display: unhandled summary type %T", s))
	}
}

func (p *Printer) printUpdate(s result.UpdateSummary) {
	lines := []string{
		fmt.Sprintf("Creators: %s successful, %s failed of %d",
			okStyle.Render(fmt.Sprintf("%d", s.Successful)),
			failureCount(s.Failed), s.Total),
		fmt.Sprintf("Api items: %d", s.APIItemsTotal),
		fmt.Sprintf("Files: %d downloaded of %d needed (%d images, %d videos)",
			s.FilesDownloaded, s.FilesNeeded, s.ImagesDownloaded, s.VideosDownloaded),
	}
	if formats := s.MediaTypesDownloaded(); len(formats) > 0 {
		lines = append(lines, "Formats: "+strings.Join(formats, ", "))
	}
	if n := s.CorrectionCount(); n > 0 {
		lines = append(lines, fmt.Sprintf("Extension corrections: %d (%s)", n, correctionList(s.CorrectionTypes())))
	}
	if len(s.DeletedCreators) > 0 {
		lines = append(lines, warnStyle.Render(
			fmt.Sprintf("Not found on Civitai: %s", strings.Join(s.DeletedCreators, ", "))))
	}
	for _, w := range s.Warnings {
		lines = append(lines, warnStyle.Render("⚠ "+w))
	}

	p.panel("Update Summary", lines)
	p.failurePanel(s.FailedCreators)
}

func (p *Printer) printVerify(s result.VerifySummary) {
	lines := []string{
		fmt.Sprintf("Creators: %s processed, %s failed",
			okStyle.Render(fmt.Sprintf("%d", s.CreatorsProcessed)),
			failureCount(s.CreatorsFailed)),
		fmt.Sprintf("Images: %d checked, %d invalid, %d incorrect extension",
			s.ImagesChecked, s.ImagesInvalid, s.ImagesIncorrect),
		fmt.Sprintf("Videos: %d checked, %d invalid, %d incorrect extension",
			s.VideosChecked, s.VideosInvalid, s.VideosIncorrect),
	}
	if n := s.CorrectionCount(); n > 0 {
		lines = append(lines, fmt.Sprintf("Extensions corrected: %d", n))
	}
	if len(s.Invalids) > 0 {
		total := 0
		for _, entries := range s.Invalids {
			total += len(entries)
		}
		lines = append(lines,
			warnStyle.Render(fmt.Sprintf("⚠ %d invalid video(s) across %d creator(s)", total, len(s.Invalids))),
			mutedStyle.Render("Run the repair command to replace them."))
	} else if s.TotalChecked() > 0 && !s.HasIssues() {
		lines = append(lines, okStyle.Render("✓ All files valid"))
	}
	for _, w := range s.Warnings {
		lines = append(lines, warnStyle.Render("⚠ "+w))
	}

	p.panel("Verification Summary", lines)
	p.failurePanel(s.FailedCreators)
}

func (p *Printer) printRepair(s result.RepairSummary) {
	lines := []string{
		fmt.Sprintf("Removed: %d", s.FilesRemoved),
		fmt.Sprintf("Redownloaded: %s of %d",
			okStyle.Render(fmt.Sprintf("%d", s.FilesRedownloaded)), s.FilesRemoved),
	}
	if s.ReportKept {
		lines = append(lines, warnStyle.Render("⚠ Some repairs failed, report kept for a future run"))
	} else if s.FilesRemoved > 0 {
		lines = append(lines, okStyle.Render("✓ All videos repaired, report removed"))
	}
	for _, w := range s.Warnings {
		lines = append(lines, warnStyle.Render("⚠ "+w))
	}

	p.panel("Repair Summary", lines)
}

func (p *Printer) panel(title string, lines []string) {
	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	block := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), panelStyle.Render(body))
	fmt.Fprintln(p.out, block)
}

// PrintPanel renders a one-off titled panel outside the summary set,
// like the maintenance notice after a purge.
func (p *Printer) PrintPanel(title string, lines []string) {
	p.panel(title, lines)
}

func (p *Printer) PrintOK(line string) {
	fmt.Fprintln(p.out, okStyle.Render(line))
}

func (p *Printer) PrintMuted(line string) {
	fmt.Fprintln(p.out, mutedStyle.Render(line))
}

// failurePanel lists per-creator failure reasons in their own box so
// they stand apart from the counts.
func (p *Printer) failurePanel(failed []result.FailedCreator) {
	if len(failed) == 0 {
		return
	}
	lines := make([]string, len(failed))
	for i, f := range failed {
		lines[i] = fmt.Sprintf("%s %s", errorStyle.Render(f.Name+":"), f.Reason)
	}
	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	block := lipgloss.JoinVertical(lipgloss.Left, errorStyle.Render("Failures"), errPanelBox.Render(body))
	fmt.Fprintln(p.out, block)
}

// Confirm asks a yes/no question and reads one answer line. Anything
// but an explicit yes declines.
func (p *Printer) Confirm(prompt string) bool {
	fmt.Fprint(p.out, promptStyle.Render(prompt)+" [y/N]: ")
	scanner := bufio.NewScanner(p.in)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func failureCount(n int) string {
	if n > 0 {
		return errorStyle.Render(fmt.Sprintf("%d", n))
	}
	return fmt.Sprintf("%d", n)
}

func correctionList(types map[string]int) string {
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s ×%d", k, types[k])
	}
	return strings.Join(parts, ", ")
}
