package mock

import (
	"sync"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

// ProgressSink records progress events for tests. The retry worker can
// report from its own goroutine, so access is mutex-guarded.
type ProgressSink struct {
	mu sync.Mutex

	// captured inputs
	Creators      []string
	Messages      []string
	LastDownload  int
	LastExisting  int
	LastTotal     int
	LastNeeded    int
	LastFetchArgs [2]int

	// call flags
	StartCreatorCalled bool
	StartFetchCalled   bool
	FetchDoneCalled    bool
	PlanReadyCalled    bool
	DownloadTickCalled bool
	VerifyTickCalled   bool
	RemoveTickCalled   bool
	RepairTickCalled   bool
	CreatorDoneCalled  bool
}

func (m *ProgressSink) StartCreator(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCreatorCalled = true
	m.Creators = append(m.Creators, name)
}

func (m *ProgressSink) StartFetch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartFetchCalled = true
}

func (m *ProgressSink) FetchProgress(pages, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFetchArgs = [2]int{pages, items}
}

func (m *ProgressSink) FetchDone(pages, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchDoneCalled = true
	m.LastFetchArgs = [2]int{pages, items}
}

func (m *ProgressSink) PlanReady(existing, total, needed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanReadyCalled = true
	m.LastExisting = existing
	m.LastTotal = total
	m.LastNeeded = needed
}

func (m *ProgressSink) DownloadTick(done int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadTickCalled = true
	m.LastDownload = done
}

func (m *ProgressSink) VerifyTick(media model.MediaType, checked, invalid, incorrect int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyTickCalled = true
}

func (m *ProgressSink) RemoveTick(done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveTickCalled = true
}

func (m *ProgressSink) RepairTick(done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RepairTickCalled = true
}

func (m *ProgressSink) CreatorDone(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatorDoneCalled = true
}

func (m *ProgressSink) Message(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}
