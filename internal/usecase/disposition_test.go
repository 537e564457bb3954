package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ExoVista/internal/domain/models"
	"ExoVista/internal/services/disposition"
	"ExoVista/internal/services/ingest"
)

type fakePublisher struct {
	mu   sync.Mutex
	envs []*models.ReportEnvelope
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, env *models.ReportEnvelope) error {
	return p.PublishBatch(context.Background(), []*models.ReportEnvelope{env})
}

func (p *fakePublisher) PublishBatch(_ context.Context, envs []*models.ReportEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.envs = append(p.envs, envs...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu        sync.Mutex
	bands     map[int]int
	errors    map[string]int
	published map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{bands: map[int]int{}, errors: map[string]int{}, published: map[string]int{}}
}

func (m *fakeMetrics) RecordClassification(band int, _ string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bands[band]++
}

func (m *fakeMetrics) RecordReportPublished(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[source]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

var hotJupiter = models.Observation{Period: 3, Duration: 3, TransitDepth: 0.3, PlanetRadius: 10, StellarRadius: 1}

func newTestUseCase(pub *fakePublisher, m *fakeMetrics) *DispositionUseCase {
	return NewDispositionUseCase(disposition.NewClassifier(),
		WithPublisher(pub), WithMetrics(m), WithBatchWorkers(3),
		WithParser(ingest.NewParser(ingest.WithMaxRows(100))))
}

func TestAnalyzePublishesReport(t *testing.T) {
	pub, m := &fakePublisher{}, newFakeMetrics()
	uc := newTestUseCase(pub, m)

	seed := uint64(7)
	r, err := uc.Analyze(context.Background(), hotJupiter, models.ModeManual, &seed, SourceHTTP)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := disposition.NewClassifier().ClassifyWithSeed(hotJupiter, 7)
	if diff := cmp.Diff(want, *r); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if len(pub.envs) != 1 || pub.envs[0].Source != SourceHTTP || pub.envs[0].ID == "" {
		t.Fatalf("unexpected published envelopes %+v", pub.envs)
	}
	if m.bands[1] != 1 || m.published[SourceHTTP] != 1 {
		t.Fatalf("unexpected metrics %+v %+v", m.bands, m.published)
	}
}

func TestAnalyzeRejectsInvalid(t *testing.T) {
	pub, m := &fakePublisher{}, newFakeMetrics()
	uc := newTestUseCase(pub, m)

	_, err := uc.Analyze(context.Background(), models.Observation{Period: 3, TransitDepth: 0.3, PlanetRadius: 10}, models.ModeManual, nil, SourceHTTP)
	if !errors.Is(err, models.ErrInvalidObservation) || !IsClientError(err) {
		t.Fatalf("expected invalid observation, got %v", err)
	}
	if len(pub.envs) != 0 || m.errors["validation"] != 1 {
		t.Fatalf("invalid input must not be published")
	}
}

func TestAnalyzeSurvivesPublishFailure(t *testing.T) {
	pub, m := &fakePublisher{err: errors.New("broker down")}, newFakeMetrics()
	uc := newTestUseCase(pub, m)

	if _, err := uc.Analyze(context.Background(), hotJupiter, models.ModeManual, nil, SourceHTTP); err != nil {
		t.Fatalf("publish failures must not fail the request: %v", err)
	}
	if m.errors["publish"] != 1 {
		t.Fatalf("expected publish error to be counted, got %v", m.errors)
	}
}

func TestExplain(t *testing.T) {
	uc := newTestUseCase(&fakePublisher{}, newFakeMetrics())
	r, err := uc.Explain(context.Background(), hotJupiter, models.ModeManual, []float64{0.9}, SourceHTTP)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if r.Band != 0 || r.Disposition != models.DispositionConfirmed {
		t.Fatalf("unexpected report %+v", r)
	}
	if _, err := uc.Explain(context.Background(), hotJupiter, models.ModeManual, []float64{0.1, 0.9}, SourceHTTP); !errors.Is(err, disposition.ErrModelOutput) {
		t.Fatalf("expected ErrModelOutput, got %v", err)
	}
}

func TestAnalyzeFile(t *testing.T) {
	pub, m := &fakePublisher{}, newFakeMetrics()
	uc := newTestUseCase(pub, m)

	csv := "Period,Transit Depth,Planet Radius,Duration\n" +
		"3,0.3,10,3\n" +
		"200,0.05,1.5,\n" +
		"-1,0.3,10,3\n" +
		"x,0.3,10,3\n" +
		"20,0.2,4,\n"
	res, err := uc.AnalyzeFile(context.Background(), "upload.csv", strings.NewReader(csv), SourceBatch)
	if err != nil {
		t.Fatalf("analyze file: %v", err)
	}
	if res.Total != 5 || res.Failed != 2 {
		t.Fatalf("total=%d failed=%d", res.Total, res.Failed)
	}
	lines := make([]int, len(res.Rows))
	for i, r := range res.Rows {
		lines[i] = r.Line
	}
	if diff := cmp.Diff([]int{2, 3, 4, 5, 6}, lines); diff != "" {
		t.Fatalf("row order changed (-want +got):\n%s", diff)
	}
	if res.Rows[0].Report == nil || res.Rows[0].Report.Band != 1 {
		t.Fatalf("first row not classified: %+v", res.Rows[0])
	}
	if res.Rows[1].Report == nil || res.Rows[1].Report.Band != 2 {
		t.Fatalf("second row not classified: %+v", res.Rows[1])
	}
	if res.Rows[2].Error == "" || res.Rows[3].Error == "" {
		t.Fatalf("bad rows must carry errors")
	}
	if len(pub.envs) != 3 || m.published[SourceBatch] != 3 {
		t.Fatalf("expected 3 published reports, got %d", len(pub.envs))
	}
}

func TestAnalyzeFileRejectsThermalSchema(t *testing.T) {
	uc := newTestUseCase(&fakePublisher{}, newFakeMetrics())
	_, err := uc.AnalyzeFile(context.Background(), "thermal.csv", strings.NewReader("orbital_period,transit_depth,temperature\n10,0.2,300\n"), SourceBatch)
	if !errors.Is(err, ingest.ErrThermalSchema) || !IsClientError(err) {
		t.Fatalf("expected thermal schema error, got %v", err)
	}
}

func TestObservationHandler(t *testing.T) {
	pub := &fakePublisher{}
	uc := newTestUseCase(pub, newFakeMetrics())
	h := NewObservationHandler("exovista.observations", uc, nil)

	if h.Topic() != "exovista.observations" {
		t.Fatalf("topic = %s", h.Topic())
	}
	if err := h.Handle(context.Background(), []byte(`{"period":3,"transitDepth":0.3,"planetRadius":10,"seed":5}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pub.envs) != 1 || pub.envs[0].Report.Seed != 5 || pub.envs[0].Source != SourceKafka {
		t.Fatalf("unexpected envelopes %+v", pub.envs)
	}
	// malformed and invalid messages are dropped, not retried
	for _, msg := range []string{`{`, `{"period":-3,"transitDepth":0.3,"planetRadius":10}`} {
		if err := h.Handle(context.Background(), []byte(msg)); err != nil {
			t.Fatalf("message %s: expected drop, got %v", msg, err)
		}
	}

	pub.err = errors.New("broker down")
	if err := h.Handle(context.Background(), []byte(`{"period":3,"transitDepth":0.3,"planetRadius":10}`)); err == nil {
		t.Fatalf("publish failure must be returned for retry")
	}
}
