package services

import (
	"context"
	"errors"
	"sync"

	"who-dashboard/models"
)

// fakeOperations ist ein steuerbarer OperationsAPI-Fake. Ist gate gesetzt, blockiert jeder
// Aufruf, bis ein Wert über den Kanal der Operation kommt.
type fakeOperations struct {
	mu    sync.Mutex
	calls map[OperationID][]any

	gates map[OperationID]chan struct{}

	density     *models.TissuesByDensityResponse
	cure        *models.CureDetail
	disease     *models.DonorsVitalDiseaseResponse
	researchers *models.TopResearchersResponse
	err         error

	// densityFor liefert optional eine Antwort abhängig vom Eingabewert.
	densityFor func(v float64) *models.TissuesByDensityResponse
}

func newFakeOperations() *fakeOperations {
	return &fakeOperations{calls: map[OperationID][]any{}, gates: map[OperationID]chan struct{}{}}
}

func (f *fakeOperations) gate(id OperationID) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

func (f *fakeOperations) record(ctx context.Context, id OperationID, arg any) error {
	f.mu.Lock()
	f.calls[id] = append(f.calls[id], arg)
	ch := f.gates[id]
	f.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeOperations) callCount(id OperationID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls[id])
}

func (f *fakeOperations) lastArg(id OperationID) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.calls[id]
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

func (f *fakeOperations) failure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeOperations) GetTissuesByDensity(ctx context.Context, v float64) (*models.TissuesByDensityResponse, error) {
	if err := f.record(ctx, OP2, v); err != nil {
		return nil, err
	}
	if err := f.failure(); err != nil {
		return nil, err
	}
	if f.densityFor != nil {
		return f.densityFor(v), nil
	}
	return f.density, nil
}

func (f *fakeOperations) GetCureDetails(ctx context.Context, id int) (*models.CureDetail, error) {
	if err := f.record(ctx, OP3, id); err != nil {
		return nil, err
	}
	if err := f.failure(); err != nil {
		return nil, err
	}
	return f.cure, nil
}

func (f *fakeOperations) GetDonorsVitalDisease(ctx context.Context, id int) (*models.DonorsVitalDiseaseResponse, error) {
	if err := f.record(ctx, OP4, id); err != nil {
		return nil, err
	}
	if err := f.failure(); err != nil {
		return nil, err
	}
	return f.disease, nil
}

func (f *fakeOperations) GetTopResearchersSuggestions(ctx context.Context, q models.JournalQuality) (*models.TopResearchersResponse, error) {
	if err := f.record(ctx, OP5, q); err != nil {
		return nil, err
	}
	if err := f.failure(); err != nil {
		return nil, err
	}
	return f.researchers, nil
}

var errBackendDown = errors.New("connection refused")

// memoryRecorder sammelt Runs im Speicher.
type memoryRecorder struct {
	mu   sync.Mutex
	runs []models.OperationRun
}

func (m *memoryRecorder) Record(_ context.Context, run models.OperationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRecorder) Recent(_ context.Context, limit int) ([]models.OperationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return append([]models.OperationRun(nil), m.runs[len(m.runs)-limit:]...), nil
}

func (m *memoryRecorder) outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.Outcome)
	}
	return out
}
