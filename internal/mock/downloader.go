package mock

import (
	"context"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

// Downloader implements the downloader interface for tests.
type Downloader struct {
	// stored values
	DownloadFilesOut  [3]int
	RetryStatsOut     port.RetryStats
	WaitForRetriesOut bool
	ExtensionsOut     map[string]int
	// RetryStatsSeq overrides RetryStatsOut per call, in order.
	RetryStatsSeq []port.RetryStats

	// captured inputs
	Items    []model.MediaItem
	OneItems []model.MediaItem
	Creator  string
	Dirs     map[model.MediaType]string

	// errors
	DownloadFilesErr error
	DownloadOneErr   error
	// DownloadOneErrs overrides DownloadOneErr per call, in order.
	DownloadOneErrs []error

	// call flags
	DownloadFilesCalled bool
	DownloadOneCalled   bool
	StartCalled         bool
	StopCalled          bool
	WaitCalled          bool
}

func (m *Downloader) DownloadFiles(ctx context.Context, items []model.MediaItem, creator string, dirs map[model.MediaType]string) (int, int, int, error) {
	m.DownloadFilesCalled = true
	m.Items = append(m.Items, items...)
	m.Creator = creator
	m.Dirs = dirs
	if m.DownloadFilesErr != nil {
		return 0, 0, 0, m.DownloadFilesErr
	}
	return m.DownloadFilesOut[0], m.DownloadFilesOut[1], m.DownloadFilesOut[2], nil
}

func (m *Downloader) DownloadOne(ctx context.Context, item model.MediaItem, creator string, dirs map[model.MediaType]string) error {
	m.DownloadOneCalled = true
	m.OneItems = append(m.OneItems, item)
	m.Creator = creator
	m.Dirs = dirs
	if len(m.DownloadOneErrs) > 0 {
		err := m.DownloadOneErrs[0]
		m.DownloadOneErrs = m.DownloadOneErrs[1:]
		return err
	}
	return m.DownloadOneErr
}

func (m *Downloader) StartRetryQueue() {
	m.StartCalled = true
}

func (m *Downloader) StopRetryQueue(wait bool) {
	m.StopCalled = true
}

func (m *Downloader) WaitForRetries(timeout time.Duration) bool {
	m.WaitCalled = true
	return m.WaitForRetriesOut
}

func (m *Downloader) RetryStats() port.RetryStats {
	if len(m.RetryStatsSeq) > 0 {
		s := m.RetryStatsSeq[0]
		m.RetryStatsSeq = m.RetryStatsSeq[1:]
		return s
	}
	return m.RetryStatsOut
}

func (m *Downloader) DownloadedExtensions() map[string]int {
	if m.ExtensionsOut == nil {
		return map[string]int{}
	}
	return m.ExtensionsOut
}
