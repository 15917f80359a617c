package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"who-dashboard/models"
	"who-dashboard/providers"
)

// OperationID identifiziert eine Operation der Konsole und zugleich ihren Tab.
type OperationID string

const (
	OP2 OperationID = "op2"
	OP3 OperationID = "op3"
	OP4 OperationID = "op4"
	OP5 OperationID = "op5"
)

// Operations listet alle Operationen in Tab-Reihenfolge.
var Operations = []OperationID{OP2, OP3, OP4, OP5}

var (
	// ErrUnknownOperation wird für Tab- oder Operationsnamen außerhalb von op2..op5 geliefert.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrNoResult meldet, dass für eine Operation noch kein Ergebnis vorliegt.
	ErrNoResult = errors.New("no result for operation")
)

// ParseOperationID prüft einen Tab- bzw. Operationsnamen.
func ParseOperationID(raw string) (OperationID, error) {
	id := OperationID(strings.ToLower(strings.TrimSpace(raw)))
	for _, op := range Operations {
		if id == op {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, raw)
}

// Default-Eingaben der Formulare.
const (
	DefaultMaxDensity = "1.0"
	DefaultCureID     = "1"
	DefaultDiseaseID  = "2"
	DefaultQuality    = string(models.QualityTop)
)

// Outcome eines einzelnen Aufrufs.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
	OutcomeDropped = "dropped"
	OutcomeInvalid = "invalid"
)

// Slot hält den Zustand genau einer Operation: Eingabe, Ladezustand und letztes Ergebnis.
type Slot[T any] struct {
	mu          sync.Mutex
	input       string
	inputErr    string
	inflight    int
	gen         uint64
	invocations int
	result      *T
}

// SlotSnapshot ist eine Momentaufnahme eines Slots für das Rendering.
type SlotSnapshot[T any] struct {
	Input       string `json:"input"`
	InputError  string `json:"input_error,omitempty"`
	Loading     bool   `json:"loading"`
	Invocations int    `json:"invocations"`
	Result      *T     `json:"result"`
}

func newSlot[T any](input string) *Slot[T] {
	return &Slot[T]{input: input}
}

func (s *Slot[T]) snapshot() SlotSnapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotSnapshot[T]{
		Input:       s.input,
		InputError:  s.inputErr,
		Loading:     s.inflight > 0,
		Invocations: s.invocations,
		Result:      s.result,
	}
}

// reject merkt sich eine ungültige Eingabe; Ergebnis und Ladezustand bleiben unverändert.
func (s *Slot[T]) reject(raw string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = raw
	s.inputErr = err.Error()
}

func (s *Slot[T]) begin(raw string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = raw
	s.inputErr = ""
	s.inflight++
	s.invocations++
	s.gen++
	return s.gen
}

// finish beendet einen Aufruf. Der Ladezustand wird immer zurückgenommen; das Ergebnis wird nur
// ersetzt, wenn die Konsole noch lebt, der Aufruf erfolgreich war und kein neuerer gestartet wurde.
func (s *Slot[T]) finish(alive bool, gen uint64, res *T, err error) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	switch {
	case !alive:
		return OutcomeDropped
	case err != nil:
		return OutcomeFailure
	case gen != s.gen:
		return OutcomeStale
	}
	s.result = res
	return OutcomeSuccess
}

// ConsoleSnapshot ist der Zustand aller vier Operationen plus aktivem Tab.
type ConsoleSnapshot struct {
	Tab         OperationID                                     `json:"tab"`
	Density     SlotSnapshot[models.TissuesByDensityResponse]   `json:"op2"`
	Cure        SlotSnapshot[models.CureDetail]                 `json:"op3"`
	Disease     SlotSnapshot[models.DonorsVitalDiseaseResponse] `json:"op4"`
	Researchers SlotSnapshot[models.TopResearchersResponse]     `json:"op5"`
}

// Loading meldet, ob mindestens eine Operation noch läuft.
func (s ConsoleSnapshot) Loading() bool {
	return s.Density.Loading || s.Cure.Loading || s.Disease.Loading || s.Researchers.Loading
}

// ConsoleOptions sind die Abhängigkeiten einer Konsole.
type ConsoleOptions struct {
	SessionID string
	Timeout   time.Duration
	Logger    *zap.Logger
	Metrics   *Metrics
	Recorder  Recorder
}

// Console verwaltet die vier unabhängigen Operationen einer Sitzung.
type Console struct {
	ctx    context.Context
	cancel context.CancelFunc
	api    providers.OperationsAPI
	opts   ConsoleOptions
	logger *zap.Logger
	wg     sync.WaitGroup

	mu  sync.Mutex
	tab OperationID

	density     *Slot[models.TissuesByDensityResponse]
	cure        *Slot[models.CureDetail]
	disease     *Slot[models.DonorsVitalDiseaseResponse]
	researchers *Slot[models.TopResearchersResponse]
}

// NewConsole erstellt eine Konsole mit Default-Eingaben und Tab op2.
func NewConsole(parent context.Context, api providers.OperationsAPI, opts ConsoleOptions) *Console {
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Console{
		ctx:         ctx,
		cancel:      cancel,
		api:         api,
		opts:        opts,
		logger:      opts.Logger.With(zap.String("session_id", opts.SessionID)),
		tab:         OP2,
		density:     newSlot[models.TissuesByDensityResponse](DefaultMaxDensity),
		cure:        newSlot[models.CureDetail](DefaultCureID),
		disease:     newSlot[models.DonorsVitalDiseaseResponse](DefaultDiseaseID),
		researchers: newSlot[models.TopResearchersResponse](DefaultQuality),
	}
}

// SelectTab wechselt den sichtbaren Tab. Ergebnisse bleiben erhalten, es wird nichts aufgerufen.
func (c *Console) SelectTab(id OperationID) {
	c.mu.Lock()
	c.tab = id
	c.mu.Unlock()
}

// ActiveTab gibt den sichtbaren Tab zurück.
func (c *Console) ActiveTab() OperationID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// Submit validiert die Eingabe und startet die Operation asynchron.
// Ungültige Eingaben liefern ErrInvalidInput und rufen das Backend nicht auf.
func (c *Console) Submit(id OperationID, raw string) error {
	switch id {
	case OP2:
		v, err := ParseDensity(raw)
		if err != nil {
			c.rejected(id, raw, err)
			c.density.reject(raw, err)
			return err
		}
		invoke(c, id, c.density, raw, func(ctx context.Context) (*models.TissuesByDensityResponse, error) {
			return c.api.GetTissuesByDensity(ctx, v)
		})
	case OP3:
		v, err := ParseID(raw)
		if err != nil {
			c.rejected(id, raw, err)
			c.cure.reject(raw, err)
			return err
		}
		invoke(c, id, c.cure, raw, func(ctx context.Context) (*models.CureDetail, error) {
			return c.api.GetCureDetails(ctx, v)
		})
	case OP4:
		v, err := ParseID(raw)
		if err != nil {
			c.rejected(id, raw, err)
			c.disease.reject(raw, err)
			return err
		}
		invoke(c, id, c.disease, raw, func(ctx context.Context) (*models.DonorsVitalDiseaseResponse, error) {
			return c.api.GetDonorsVitalDisease(ctx, v)
		})
	case OP5:
		v, err := ParseQuality(raw)
		if err != nil {
			c.rejected(id, raw, err)
			c.researchers.reject(raw, err)
			return err
		}
		invoke(c, id, c.researchers, raw, func(ctx context.Context) (*models.TopResearchersResponse, error) {
			return c.api.GetTopResearchersSuggestions(ctx, v)
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, id)
	}
	return nil
}

func (c *Console) rejected(id OperationID, raw string, err error) {
	c.logger.Warn("Ungültige Eingabe, Operation wird nicht ausgeführt",
		zap.String("operation", string(id)), zap.String("input", raw), zap.Error(err))
	c.opts.Metrics.OperationInvocations.WithLabelValues(string(id), OutcomeInvalid).Inc()
}

// invoke startet einen Aufruf in einer eigenen Goroutine (fire-and-forget).
func invoke[T any](c *Console, id OperationID, slot *Slot[T], raw string, call func(ctx context.Context) (*T, error)) {
	gen := slot.begin(raw)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		log := c.logger.With(zap.String("operation", string(id)), zap.String("input", raw))

		ctx := c.ctx
		if c.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(c.ctx, c.opts.Timeout)
			defer cancel()
		}

		started := time.Now()
		res, err := call(ctx)
		took := time.Since(started)
		c.opts.Metrics.BackendLatency.WithLabelValues(string(id)).Observe(took.Seconds())

		outcome := slot.finish(c.ctx.Err() == nil, gen, res, err)
		c.opts.Metrics.OperationInvocations.WithLabelValues(string(id), outcome).Inc()

		switch outcome {
		case OutcomeFailure:
			log.Error("Operation fehlgeschlagen", zap.Error(err), zap.Duration("took", took))
		case OutcomeStale:
			log.Info("Veraltete Antwort verworfen, neuerer Aufruf läuft bereits", zap.Uint64("generation", gen))
		case OutcomeDropped:
			log.Debug("Sitzung beendet, Ergebnis verworfen")
			return
		default:
			log.Info("Operation abgeschlossen", zap.Duration("took", took))
		}

		run := models.OperationRun{
			SessionID:  c.opts.SessionID,
			Operation:  string(id),
			Input:      raw,
			Outcome:    outcome,
			DurationMS: took.Milliseconds(),
		}
		if err != nil {
			run.Error = err.Error()
		}
		recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if rerr := c.opts.Recorder.Record(recCtx, run); rerr != nil {
			log.Warn("Run-Historie konnte nicht geschrieben werden", zap.Error(rerr))
		}
	}()
}

// Snapshot liefert den aktuellen Zustand aller Operationen.
func (c *Console) Snapshot() ConsoleSnapshot {
	return ConsoleSnapshot{
		Tab:         c.ActiveTab(),
		Density:     c.density.snapshot(),
		Cure:        c.cure.snapshot(),
		Disease:     c.disease.snapshot(),
		Researchers: c.researchers.snapshot(),
	}
}

// Wait blockiert, bis alle laufenden Aufrufe abgeschlossen sind.
func (c *Console) Wait() {
	c.wg.Wait()
}

// Close beendet die Konsole. Laufende Aufrufe werden abgebrochen, ihre Ergebnisse verworfen.
func (c *Console) Close() {
	c.cancel()
}
