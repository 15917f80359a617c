package providers

import (
	"context"

	"who-dashboard/models"
)

// DonorsAPI liefert die Spenderliste des Backends.
type DonorsAPI interface {
	GetAll(ctx context.Context) (*models.DonorsResponse, error)
}

// TissuesAPI liefert die Gewebeliste des Backends.
type TissuesAPI interface {
	GetAll(ctx context.Context) (*models.TissuesResponse, error)
}

// DrugsAPI liefert die Medikamentenliste des Backends.
type DrugsAPI interface {
	GetAll(ctx context.Context) (*models.DrugsResponse, error)
}

// OperationsAPI ist das Interface für die vier parametrisierten Analyse-Abfragen (OP2-OP5).
type OperationsAPI interface {
	GetTissuesByDensity(ctx context.Context, maxDensity float64) (*models.TissuesByDensityResponse, error)
	GetCureDetails(ctx context.Context, cureID int) (*models.CureDetail, error)
	GetDonorsVitalDisease(ctx context.Context, diseaseID int) (*models.DonorsVitalDiseaseResponse, error)
	GetTopResearchersSuggestions(ctx context.Context, quality models.JournalQuality) (*models.TopResearchersResponse, error)
}

// HealthAPI prüft, ob das Backend erreichbar ist.
type HealthAPI interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
}
