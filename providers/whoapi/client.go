package whoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"who-dashboard/config"
	"who-dashboard/models"
	"who-dashboard/providers"
)

const userAgent = "who-dashboard/1.0"

// Client spricht mit der REST-API des WHO-Backends.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient erstellt einen neuen Backend-Client ohne Retries.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	log := logger.With(zap.String("provider", "whoapi"))
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BackendBaseURL, "/")).
		SetTimeout(cfg.BackendTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(log.Sugar())

	return &Client{http: client, logger: log}
}

// StatusError wird bei HTTP-Status außerhalb von 2xx zurückgegeben.
type StatusError struct {
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("GET %s: status %d", e.Path, e.StatusCode)
}

// errorBody bildet das FastAPI-Fehlerformat ab: detail ist String oder Liste von {msg, type}.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (b *errorBody) message() string {
	if len(b.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(b.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(b.Detail)
}

// get führt einen GET aus und dekodiert die Antwort in result.
func (c *Client) get(ctx context.Context, path string, prepare func(*resty.Request), result any) error {
	req := c.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(result).
		SetError(&errorBody{})
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Get(path)
	if err != nil {
		// Fehlerantwort ohne JSON-Body (z.B. Proxy-Fehlerseite)
		if resp != nil && resp.StatusCode() >= 400 {
			return &StatusError{Path: path, StatusCode: resp.StatusCode(), Detail: strings.TrimSpace(resp.String())}
		}
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		serr := &StatusError{Path: path, StatusCode: resp.StatusCode()}
		if body, ok := resp.Error().(*errorBody); ok {
			serr.Detail = body.message()
		}
		return serr
	}
	c.logger.Debug("Backend-Aufruf erfolgreich", zap.String("path", path), zap.Duration("took", resp.Time()))
	return nil
}

// Donors gibt die Spender-Schnittstelle zurück.
func (c *Client) Donors() providers.DonorsAPI { return donorsAPI{c} }

// Tissues gibt die Gewebe-Schnittstelle zurück.
func (c *Client) Tissues() providers.TissuesAPI { return tissuesAPI{c} }

// Drugs gibt die Medikamenten-Schnittstelle zurück.
func (c *Client) Drugs() providers.DrugsAPI { return drugsAPI{c} }

type donorsAPI struct{ c *Client }

func (a donorsAPI) GetAll(ctx context.Context) (*models.DonorsResponse, error) {
	var out models.DonorsResponse
	if err := a.c.get(ctx, "/api/donors", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type tissuesAPI struct{ c *Client }

func (a tissuesAPI) GetAll(ctx context.Context) (*models.TissuesResponse, error) {
	var out models.TissuesResponse
	if err := a.c.get(ctx, "/api/tissues", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type drugsAPI struct{ c *Client }

func (a drugsAPI) GetAll(ctx context.Context) (*models.DrugsResponse, error) {
	var out models.DrugsResponse
	if err := a.c.get(ctx, "/api/drugs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTissuesByDensity ruft OP2 auf.
func (c *Client) GetTissuesByDensity(ctx context.Context, maxDensity float64) (*models.TissuesByDensityResponse, error) {
	var out models.TissuesByDensityResponse
	err := c.get(ctx, "/api/operations/tissues-by-density", func(r *resty.Request) {
		r.SetQueryParam("max_density", strconv.FormatFloat(maxDensity, 'f', -1, 64))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCureDetails ruft OP3 auf.
func (c *Client) GetCureDetails(ctx context.Context, cureID int) (*models.CureDetail, error) {
	var out models.CureDetail
	err := c.get(ctx, "/api/operations/cure-details/{cure_id}", func(r *resty.Request) {
		r.SetPathParam("cure_id", strconv.Itoa(cureID))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDonorsVitalDisease ruft OP4 auf.
func (c *Client) GetDonorsVitalDisease(ctx context.Context, diseaseID int) (*models.DonorsVitalDiseaseResponse, error) {
	var out models.DonorsVitalDiseaseResponse
	err := c.get(ctx, "/api/operations/donors-vital-disease", func(r *resty.Request) {
		r.SetQueryParam("disease_id", strconv.Itoa(diseaseID))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTopResearchersSuggestions ruft OP5 auf.
func (c *Client) GetTopResearchersSuggestions(ctx context.Context, quality models.JournalQuality) (*models.TopResearchersResponse, error) {
	var out models.TopResearchersResponse
	err := c.get(ctx, "/api/operations/top-researchers-suggestions", func(r *resty.Request) {
		r.SetQueryParam("quality", string(quality))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Health ruft den Health-Endpunkt des Backends auf.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.get(ctx, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var (
	_ providers.OperationsAPI = (*Client)(nil)
	_ providers.HealthAPI     = (*Client)(nil)
)
