package etl

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/adamwal/gpwetl/internal/calendar"
	"github.com/adamwal/gpwetl/internal/contracts"
	"github.com/adamwal/gpwetl/pkg/logger"
)

type fakeFetcher struct {
	histories map[string][]contracts.PriceRecord
	errs      map[string]error
	calls     []string
}

func (f *fakeFetcher) DailyHistory(_ context.Context, symbol string) ([]contracts.PriceRecord, error) {
	f.calls = append(f.calls, symbol)
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.histories[symbol], nil
}

type fakeInstrumentStore struct {
	nextID int64
	err    error
}

func (f *fakeInstrumentStore) GetOrCreate(_ context.Context, symbol, name string, kind contracts.InstrumentKind) (*contracts.Instrument, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	return &contracts.Instrument{ID: f.nextID, Symbol: symbol, Name: name, Kind: kind, StockID: f.nextID}, nil
}

type fakePriceWriter struct {
	batches map[string][]contracts.PriceRecord
	errs    map[string]error
}

func (f *fakePriceWriter) UpsertBatch(_ context.Context, inst *contracts.Instrument, records []contracts.PriceRecord) (int, int, error) {
	if err := f.errs[inst.Symbol]; err != nil {
		return 0, 0, err
	}
	if f.batches == nil {
		f.batches = make(map[string][]contracts.PriceRecord)
	}
	f.batches[inst.Symbol] = records
	return len(records), 0, nil
}

type fakeQuality struct {
	evaluated int
	recorded  int
}

func (f *fakeQuality) Evaluate(jobID int64, _ contracts.Instrument, records []contracts.PriceRecord) []contracts.QualityMetric {
	f.evaluated++
	return []contracts.QualityMetric{{JobID: jobID, Passed: true}}
}

func (f *fakeQuality) RecordMetrics(_ context.Context, metrics []contracts.QualityMetric) error {
	f.recorded += len(metrics)
	return nil
}

type fakeAudit struct {
	created   *contracts.Job
	finalized *contracts.Job
	details   []contracts.JobDetail
	createErr error
}

func (f *fakeAudit) CreateJob(_ context.Context, job *contracts.Job) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = job
	return 42, nil
}

func (f *fakeAudit) AppendDetail(_ context.Context, d contracts.JobDetail) error {
	f.details = append(f.details, d)
	return nil
}

func (f *fakeAudit) FinalizeJob(_ context.Context, job *contracts.Job) error {
	f.finalized = job
	return nil
}

type pipelineFixture struct {
	runner  *Runner
	fetcher *fakeFetcher
	prices  *fakePriceWriter
	quality *fakeQuality
	audit   *fakeAudit
}

func history(symbol string, days ...int) []contracts.PriceRecord {
	out := make([]contracts.PriceRecord, len(days))
	for i, d := range days {
		out[i] = contracts.PriceRecord{
			Symbol:      symbol,
			TradingDate: time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC),
			Open:        10, High: 11, Low: 9.5, Close: 10.5, Volume: 1000,
		}
	}
	return out
}

// newPipelineFixture wires a runner against fakes with "today" pinned to
// Wednesday 2024-04-03.
func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	log := logger.NewWriter(io.Discard, "error")
	cal := calendar.New(2020, 2030)
	clock := testClock(t, "2024-04-03")

	f := &pipelineFixture{
		fetcher: &fakeFetcher{histories: map[string][]contracts.PriceRecord{}, errs: map[string]error{}},
		prices:  &fakePriceWriter{errs: map[string]error{}},
		quality: &fakeQuality{},
		audit:   &fakeAudit{},
	}

	resolver := NewResolver(cal, 7, "prod_stock_data", log).WithClock(clock)
	selector := NewSelector(&fakeHistory{}, 7, log).WithClock(clock)
	f.runner = NewRunner(resolver, selector, f.fetcher, &fakeInstrumentStore{}, f.prices, f.quality, f.quality, f.audit, log)
	f.runner.now = clock
	return f
}

func universe(symbols ...string) []contracts.Instrument {
	out := make([]contracts.Instrument, len(symbols))
	for i, s := range symbols {
		out[i] = contracts.Instrument{Symbol: s, Name: s, Kind: contracts.KindStock}
	}
	return out
}

func TestRunHappyPath(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.histories["XTB"] = history("XTB", 25, 26, 27, 28)
	f.fetcher.histories["PKN"] = history("PKN", 27, 28)

	rc := RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled}
	if err := f.runner.Run(context.Background(), rc, universe("XTB", "PKN")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job := f.audit.finalized
	if job == nil || job.Status != contracts.JobCompleted {
		t.Fatalf("job = %+v", job)
	}
	// New instruments get the historical strategy, so the whole batch lands.
	if got := len(f.prices.batches["XTB"]); got != 4 {
		t.Errorf("XTB rows = %d, want 4", got)
	}
	if f.quality.evaluated != 2 || f.quality.recorded != 2 {
		t.Errorf("quality: evaluated %d recorded %d", f.quality.evaluated, f.quality.recorded)
	}
	if len(f.audit.details) != 2 {
		t.Errorf("details = %d, want 2", len(f.audit.details))
	}
}

func TestRunSkipsNonTradingDay(t *testing.T) {
	f := newPipelineFixture(t)

	// Backfill targeting a Saturday hits the weekend skip gate.
	rc := RunContext{
		LogicalDate: "2024-04-06",
		RunType:     RunTypeScheduled,
		Conf:        map[string]interface{}{"mode": "backfill"},
	}

	if err := f.runner.Run(context.Background(), rc, universe("XTB")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.audit.created != nil {
		t.Error("skipped run must not open a job record")
	}
	if len(f.fetcher.calls) != 0 {
		t.Errorf("skipped run fetched %v", f.fetcher.calls)
	}
}

func TestRunIsolatesInstrumentFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.histories["XTB"] = history("XTB", 28)
	f.fetcher.errs["PKN"] = errors.New("connection reset")
	f.fetcher.histories["CCC"] = history("CCC", 28)

	rc := RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled}
	if err := f.runner.Run(context.Background(), rc, universe("XTB", "PKN", "CCC")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(f.fetcher.calls) != 3 {
		t.Errorf("calls = %v, want all three symbols", f.fetcher.calls)
	}

	job := f.audit.finalized
	if job.RecordsFailed != 1 {
		t.Errorf("failed = %d, want 1", job.RecordsFailed)
	}
	// 2 of 3 landed, above the failure threshold.
	if job.Status != contracts.JobCompleted {
		t.Errorf("status = %s, want completed", job.Status)
	}

	var failedDetail *contracts.JobDetail
	for i := range f.audit.details {
		if f.audit.details[i].Operation == "failed" {
			failedDetail = &f.audit.details[i]
		}
	}
	if failedDetail == nil || failedDetail.Symbol != "PKN" {
		t.Errorf("failed detail = %+v", failedDetail)
	}
}

func TestRunMajorityFailureFailsJob(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.histories["XTB"] = history("XTB", 28)
	f.fetcher.errs["PKN"] = errors.New("timeout")
	f.fetcher.errs["CCC"] = errors.New("timeout")

	rc := RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled}
	if err := f.runner.Run(context.Background(), rc, universe("XTB", "PKN", "CCC")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.audit.finalized.Status != contracts.JobFailed {
		t.Errorf("status = %s, want failed", f.audit.finalized.Status)
	}
}

func TestRunUpsertFailureRollsInstrumentOnly(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.histories["XTB"] = history("XTB", 27, 28)
	f.fetcher.histories["PKN"] = history("PKN", 28)
	f.prices.errs["XTB"] = errors.New("constraint violation")

	rc := RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled}
	if err := f.runner.Run(context.Background(), rc, universe("XTB", "PKN")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := f.prices.batches["XTB"]; ok {
		t.Error("failed upsert must not leave a batch")
	}
	if len(f.prices.batches["PKN"]) != 1 {
		t.Error("other instruments must still commit")
	}
}

func TestRunJobOpenFailurePropagates(t *testing.T) {
	f := newPipelineFixture(t)
	f.audit.createErr = errors.New("database unreachable")

	rc := RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled}
	if err := f.runner.Run(context.Background(), rc, universe("XTB")); err == nil {
		t.Fatal("infrastructure failure must propagate")
	}
	if len(f.fetcher.calls) != 0 {
		t.Error("no instrument work without a job record")
	}
}

func TestRunCancelledContextFailsJob(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.histories["XTB"] = history("XTB", 28)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := RunContext{LogicalDate: "2024-04-03", RunType: RunTypeScheduled}
	err := f.runner.Run(ctx, rc, universe("XTB"))
	if err == nil {
		t.Fatal("cancelled run must return an error")
	}
	if f.audit.finalized == nil || f.audit.finalized.Status != contracts.JobFailed {
		t.Errorf("finalized = %+v, want failed job", f.audit.finalized)
	}
}

func TestRunValidationToggle(t *testing.T) {
	f := newPipelineFixture(t)
	f.fetcher.histories["XTB"] = history("XTB", 28)

	rc := RunContext{
		LogicalDate: "2024-04-03",
		RunType:     RunTypeScheduled,
		Conf:        map[string]interface{}{"enable_validation": false},
	}
	if err := f.runner.Run(context.Background(), rc, universe("XTB")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.quality.evaluated != 0 {
		t.Errorf("validation disabled but evaluated %d times", f.quality.evaluated)
	}
}
