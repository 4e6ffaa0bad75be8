// Package pipeline orchestrates a scoring run: load records, score every
// province through the code/item/field stages, recombine island groups, and
// hand the results to the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/epi"
	"github.com/covidnpi/stringency-etl/internal/observability"
	"github.com/covidnpi/stringency-etl/internal/regions"
	"github.com/covidnpi/stringency-etl/internal/score"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

// growthWindow is the moving-average and lag window, in days, for relating
// case counts to stringency scores after a run.
const growthWindow = 7

// Stage names used for sink output layout.
const (
	StageCodes  = "codes"
	StageItems  = "items"
	StageFields = "fields"
)

// Source loads intervention records grouped by province key.
type Source interface {
	Load() (map[string][]domain.Intervention, error)
}

// Sink persists scored tables per stage and province.
type Sink interface {
	WriteMatrix(stage, province string, m *score.Matrix) error
	WriteTable(stage, province string, table *domain.Table) error
}

// Publisher pushes a province's final field scores to a downstream consumer.
// Optional; a nil publisher disables publishing.
type Publisher interface {
	PublishFields(ctx context.Context, province string, fields *domain.Table) error
}

// Pipeline wires the scoring stages together for batch runs.
type Pipeline struct {
	source    Source
	sink      Sink
	publisher Publisher
	scorer    *score.Scorer
	tax       *taxonomy.Table
	formulas  *score.FormulaTable
	logger    *slog.Logger
	metrics   *observability.Metrics
	cases     map[string]domain.Series
	ready     atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(
	source Source,
	sink Sink,
	publisher Publisher,
	scorer *score.Scorer,
	tax *taxonomy.Table,
	formulas *score.FormulaTable,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		source:    source,
		sink:      sink,
		publisher: publisher,
		scorer:    scorer,
		tax:       tax,
		formulas:  formulas,
		logger:    logger,
		metrics:   metrics,
	}
}

// AttachCases supplies per-province daily case series for post-run
// correlation analysis. Optional; no analysis runs without it.
func (p *Pipeline) AttachCases(cases map[string]domain.Series) {
	p.cases = cases
}

// CheckReadiness returns nil once a scoring run has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no scoring run has completed yet")
	}
	return nil
}

// Run executes one full scoring run over every province in the source.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.metrics.RunRunning.Set(1)
	defer p.metrics.RunRunning.Set(0)

	byProvince, err := p.source.Load()
	if err != nil {
		return err
	}
	total := 0
	for _, recs := range byProvince {
		total += len(recs)
	}
	p.metrics.RecordsLoaded.Add(float64(total))
	p.logger.Info("scoring run started",
		"provinces", len(byProvince), "records", total,
		"formula_version", p.formulas.Version)

	provinces := make([]string, 0, len(byProvince))
	for name := range byProvince {
		provinces = append(provinces, name)
	}
	sort.Strings(provinces)

	fieldTables := make(map[string]*domain.Table, len(provinces))
	for _, province := range provinces {
		if err := ctx.Err(); err != nil {
			return err
		}
		scores, err := p.scoreProvince(province, byProvince[province])
		if err != nil {
			return err
		}
		fieldTables[province] = scores.Fields
		if err := p.emit(ctx, scores); err != nil {
			return err
		}
	}

	p.aggregateIslandGroups(ctx, fieldTables)
	p.analyzeCaseCorrelation(fieldTables)

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("scoring run finished", "duration", time.Since(start))
	return nil
}

// scoreProvince runs one province through every scoring stage.
func (p *Pipeline) scoreProvince(province string, recs []domain.Intervention) (*score.ProvinceScores, error) {
	start := time.Now()

	codes, dropped := p.scorer.ScoreProvince(province, recs)
	p.metrics.RecordsDropped.Add(float64(dropped))
	items := score.ComposeItems(codes, p.formulas)
	collapsed := score.Collapse(items, province, p.logger)
	fields, err := score.ComposeFields(collapsed, p.tax)
	if err != nil {
		return nil, err
	}

	p.metrics.ProvincesScored.Inc()
	p.metrics.ProvinceScoreDuration.Observe(time.Since(start).Seconds())
	return &score.ProvinceScores{
		Province: province,
		Codes:    codes,
		Items:    collapsed,
		Fields:   fields,
	}, nil
}

// emit writes one province's stages to the sink and publishes its fields.
func (p *Pipeline) emit(ctx context.Context, scores *score.ProvinceScores) error {
	if err := p.sink.WriteMatrix(StageCodes, scores.Province, scores.Codes); err != nil {
		p.metrics.SinkWrites.WithLabelValues("file", "error").Inc()
		return err
	}
	if err := p.sink.WriteTable(StageItems, scores.Province, scores.Items); err != nil {
		p.metrics.SinkWrites.WithLabelValues("file", "error").Inc()
		return err
	}
	if err := p.sink.WriteTable(StageFields, scores.Province, scores.Fields); err != nil {
		p.metrics.SinkWrites.WithLabelValues("file", "error").Inc()
		return err
	}
	p.metrics.SinkWrites.WithLabelValues("file", "success").Inc()

	if p.publisher == nil {
		return nil
	}
	if err := p.publisher.PublishFields(ctx, scores.Province, scores.Fields); err != nil {
		p.metrics.SinkWrites.WithLabelValues("kafka", "error").Inc()
		return err
	}
	p.metrics.SinkWrites.WithLabelValues("kafka", "success").Inc()
	return nil
}

// analyzeCaseCorrelation relates each province's mean field score to the
// growth rate of its case series and logs the Pearson correlation. Purely
// informational; provinces without enough overlapping data are skipped.
func (p *Pipeline) analyzeCaseCorrelation(fieldTables map[string]*domain.Table) {
	if len(p.cases) == 0 {
		return
	}
	provinces := make([]string, 0, len(p.cases))
	for name := range p.cases {
		provinces = append(provinces, name)
	}
	sort.Strings(provinces)

	for _, province := range provinces {
		fields, ok := fieldTables[province]
		if !ok {
			continue
		}
		dates, counts := epi.SeriesValues(p.cases[province])
		scores := make([]float64, len(dates))
		for i, date := range dates {
			scores[i] = meanFieldScore(fields, date)
		}
		corr := epi.Correlation(scores, epi.GrowthRate(counts, growthWindow))
		if math.IsNaN(corr) {
			continue
		}
		p.logger.Info("score vs case growth correlation",
			"province", province,
			"window_days", growthWindow,
			"correlation", corr)
	}
}

// meanFieldScore averages the fields scored on one date; NaN when the date
// is outside the province's scored range.
func meanFieldScore(fields *domain.Table, date string) float64 {
	sum, n := 0.0, 0
	for _, col := range fields.Columns {
		if v, present := fields.Data[col][date]; present {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// aggregateIslandGroups recombines scored islands into their parent
// provinces. A group whose member is missing is logged and skipped; the
// remaining groups still aggregate.
func (p *Pipeline) aggregateIslandGroups(ctx context.Context, fieldTables map[string]*domain.Table) {
	for _, group := range regions.IslandGroups {
		combined, err := score.AggregateIslands(group, fieldTables)
		if err != nil {
			p.metrics.IslandGroupsFailed.Inc()
			p.logger.Error("island group aggregation failed",
				"group", group.Parent, "error", err)
			continue
		}
		if err := p.sink.WriteTable(StageFields, group.Parent, combined); err != nil {
			p.metrics.SinkWrites.WithLabelValues("file", "error").Inc()
			p.logger.Error("island group write failed",
				"group", group.Parent, "error", err)
			continue
		}
		p.metrics.SinkWrites.WithLabelValues("file", "success").Inc()
		if p.publisher != nil {
			if err := p.publisher.PublishFields(ctx, group.Parent, combined); err != nil {
				p.metrics.SinkWrites.WithLabelValues("kafka", "error").Inc()
				p.logger.Error("island group publish failed",
					"group", group.Parent, "error", err)
			} else {
				p.metrics.SinkWrites.WithLabelValues("kafka", "success").Inc()
			}
		}
	}
}
