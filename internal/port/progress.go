package port

import "github.com/Mewyk/CivitaiMediaHoarder/internal/model"

// ProgressSink receives live progress events from long-running
// operations. Implementations must tolerate calls from the download
// loop and the retry worker at the same time.
type ProgressSink interface {
	StartCreator(name string)
	StartFetch()
	FetchProgress(pages, items int)
	FetchDone(pages, items int)
	// PlanReady announces how much of a creator's catalogue is already
	// on disk and how much still needs downloading.
	PlanReady(existing, total, needed int)
	DownloadTick(done int)
	VerifyTick(media model.MediaType, checked, invalid, incorrect int)
	RemoveTick(done, total int)
	RepairTick(done, total int)
	CreatorDone(name string)
	Message(msg string)
}
