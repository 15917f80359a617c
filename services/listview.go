package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"who-dashboard/models"
	"who-dashboard/providers"
)

// ListState ist der Zustand einer Ressourcen-Liste.
type ListState int

const (
	ListIdle ListState = iota
	ListLoading
	ListSuccess
	ListError
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListSuccess:
		return "success"
	case ListError:
		return "error"
	default:
		return "idle"
	}
}

// FetchFunc lädt alle Datensätze einer Ressource.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// ListView ist die Zustandsmaschine einer Listenansicht (Donors, Tissues, Drugs).
// Jeder Seitenaufruf erzeugt eine neue Instanz; es gibt keinen Retry.
type ListView[T any] struct {
	resource string
	fetch    FetchFunc[T]
	logger   *zap.Logger
	metrics  *Metrics

	state ListState
	items []T
	err   string
}

// NewListView erstellt eine Listenansicht im Zustand Idle.
func NewListView[T any](resource string, fetch FetchFunc[T], logger *zap.Logger, metrics *Metrics) *ListView[T] {
	return &ListView[T]{
		resource: resource,
		fetch:    fetch,
		logger:   logger.With(zap.String("resource", resource)),
		metrics:  metrics,
	}
}

// Start wechselt in den Zustand Loading.
func (v *ListView[T]) Start() {
	v.state = ListLoading
}

// Load lädt die Liste und wechselt nach Success oder Error.
// Die Fehlerursache wird nur geloggt, nie angezeigt.
func (v *ListView[T]) Load(ctx context.Context) {
	v.Start()

	started := time.Now()
	items, err := v.fetch(ctx)
	v.metrics.BackendLatency.WithLabelValues("list_" + v.resource).Observe(time.Since(started).Seconds())

	if err != nil {
		v.logger.Error("Failed to fetch "+v.resource, zap.Error(err))
		v.metrics.ListFetches.WithLabelValues(v.resource, "failure").Inc()
		v.items = nil
		v.err = fmt.Sprintf("Failed to load %s. Please check if the backend is running.", v.resource)
		v.state = ListError
		return
	}

	v.metrics.ListFetches.WithLabelValues(v.resource, "success").Inc()
	v.items = items
	v.err = ""
	v.state = ListSuccess
}

// Resource gibt den Ressourcennamen im Plural zurück (z.B. "donors").
func (v *ListView[T]) Resource() string { return v.resource }

// State gibt den aktuellen Zustand zurück.
func (v *ListView[T]) State() ListState { return v.state }

// Items gibt die geladenen Datensätze in Server-Reihenfolge zurück.
func (v *ListView[T]) Items() []T { return v.items }

// ErrorMessage gibt die feste Fehlermeldung für den Nutzer zurück.
func (v *ListView[T]) ErrorMessage() string { return v.err }

// DonorsFetch adaptiert die Spender-API an FetchFunc.
func DonorsFetch(api providers.DonorsAPI) FetchFunc[models.Donor] {
	return func(ctx context.Context) ([]models.Donor, error) {
		resp, err := api.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Donors, nil
	}
}

// TissuesFetch adaptiert die Gewebe-API an FetchFunc.
func TissuesFetch(api providers.TissuesAPI) FetchFunc[models.Tissue] {
	return func(ctx context.Context) ([]models.Tissue, error) {
		resp, err := api.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Tissues, nil
	}
}

// DrugsFetch adaptiert die Medikamenten-API an FetchFunc.
func DrugsFetch(api providers.DrugsAPI) FetchFunc[models.Drug] {
	return func(ctx context.Context) ([]models.Drug, error) {
		resp, err := api.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Drugs, nil
	}
}
