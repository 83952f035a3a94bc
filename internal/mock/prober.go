package mock

import (
	"context"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

// Prober implements the prober interface for tests.
type Prober struct {
	// stored values
	ProbeOut port.MediaProbe
	// per-path overrides, consulted before ProbeOut
	ProbeOutByPath map[string]port.MediaProbe

	// captured inputs
	ProbedPaths []string

	// errors
	ProbeErr       error
	ProbeErrByPath map[string]error

	// call flags
	ProbeCalled bool
}

func (m *Prober) Probe(ctx context.Context, path string) (port.MediaProbe, error) {
	m.ProbeCalled = true
	m.ProbedPaths = append(m.ProbedPaths, path)
	if err, ok := m.ProbeErrByPath[path]; ok {
		return port.MediaProbe{}, err
	}
	if m.ProbeErr != nil {
		return port.MediaProbe{}, m.ProbeErr
	}
	if out, ok := m.ProbeOutByPath[path]; ok {
		return out, nil
	}
	return m.ProbeOut, nil
}
