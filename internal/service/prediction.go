// Package service runs one prediction round: fetch the upstream sessions,
// record the latest outcome and score the next one.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-ai/internal/datasource"
	"github.com/yourusername/taixiu-ai/internal/ensemble"
	"github.com/yourusername/taixiu-ai/internal/history"
	"github.com/yourusername/taixiu-ai/internal/logger"
	"github.com/yourusername/taixiu-ai/internal/metrics"
	"github.com/yourusername/taixiu-ai/internal/models"
)

const (
	// DefaultTag is the report "id" field when none is configured.
	DefaultTag = "tai-xiu-ai"
	// DefaultRecentTotalsWindow is how many trailing records feed the total bias estimator.
	DefaultRecentTotalsWindow = 20
)

// Publisher receives every report produced by Predict.
type Publisher interface {
	Publish(report *models.PredictionReport)
}

// PredictionConfig holds the tunables of the prediction service.
type PredictionConfig struct {
	Tag                string
	RecentTotalsWindow int
}

// PredictionService orchestrates a single prediction call.
type PredictionService struct {
	source    datasource.SessionSource
	store     *history.Store
	engine    *ensemble.Engine
	reports   *ReportCache
	publisher Publisher
	cfg       PredictionConfig
	logger    *logger.PredictionLogger
}

// NewPredictionService creates a new prediction service. reports may be nil.
func NewPredictionService(
	source datasource.SessionSource,
	store *history.Store,
	engine *ensemble.Engine,
	reports *ReportCache,
	cfg PredictionConfig,
	log logrus.FieldLogger,
) *PredictionService {
	if cfg.Tag == "" {
		cfg.Tag = DefaultTag
	}
	if cfg.RecentTotalsWindow <= 0 {
		cfg.RecentTotalsWindow = DefaultRecentTotalsWindow
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PredictionService{
		source:  source,
		store:   store,
		engine:  engine,
		reports: reports,
		cfg:     cfg,
		logger:  logger.NewPredictionLogger(log),
	}
}

// SetPublisher attaches a publisher that sees every new report.
func (s *PredictionService) SetPublisher(p Publisher) {
	s.publisher = p
}

// Reports returns the issued report cache, or nil.
func (s *PredictionService) Reports() *ReportCache {
	return s.reports
}

// Predict fetches the sessions, records the latest outcome and forecasts the
// following session. Source failures return no report and leave the history
// untouched. A failed history write is logged and the report is still built.
func (s *PredictionService) Predict(ctx context.Context) (*models.PredictionReport, error) {
	sessions, err := s.source.FetchSessions(ctx)
	if err == nil && len(sessions) == 0 {
		err = datasource.ErrMalformedPayload
	}
	if err != nil {
		kind := failureKind(err)
		metrics.RecordPredictionFailure(kind)
		s.logger.LogSourceFailure(s.source.Name(), kind, err)
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	latest := LatestSession(sessions)
	outcome := latest.Outcome()

	var snap models.HistorySnapshot
	if outcome.Valid() {
		snap, err = s.store.Append(ctx, outcome)
		if err != nil {
			s.logger.LogPersistenceFailure(latest.ID, s.store.BackendName(), err)
		}
	} else {
		metrics.RecordUnrecognizedOutcome()
		s.logger.LogUnrecognizedOutcome(latest.ID, latest.Result)
		snap = s.store.Snapshot()
	}

	res := s.engine.Analyze(ensemble.Input{
		History:      snap.History,
		RecentTotals: RecentTotals(sessions, s.cfg.RecentTotalsWindow),
	})

	report := s.buildReport(latest, snap.History, res)
	s.record(res, report)

	s.logger.LogPredictionIssued(report.Session, report.NextSession, report.Prediction, report.Confidence, len(report.Pattern))

	return report, nil
}

func (s *PredictionService) buildReport(latest models.Session, h []models.Outcome, res *ensemble.Result) *models.PredictionReport {
	dice := latest.Dices
	if dice == nil {
		dice = []int{}
	}

	return &models.PredictionReport{
		Session:     latest.ID,
		Dice:        dice,
		Total:       latest.Point,
		Result:      resultLabel(latest),
		NextSession: latest.ID + 1,
		Prediction:  res.Predicted().Display(),
		Confidence:  Percent(res.Confidence),
		Explanation: ensemble.Explain(h, res),
		Pattern:     h,
		WinRates: models.WinRates{
			Tai: Percent(res.PTai),
			Xiu: Percent(res.PXiu),
		},
		Tag: s.cfg.Tag,
	}
}

func (s *PredictionService) record(res *ensemble.Result, report *models.PredictionReport) {
	metrics.RecordPrediction(string(res.Predicted()), res.Confidence)
	names := ensemble.EstimatorNames()
	for i, v := range res.Estimates {
		metrics.UpdateEstimator(names[i], v)
	}

	if s.reports != nil {
		s.reports.Set(report)
	}
	if s.publisher != nil {
		s.publisher.Publish(report)
	}
}

// LatestSession returns the record with the largest id. On equal ids the
// later record in the list wins.
func LatestSession(sessions []models.Session) models.Session {
	latest := sessions[0]
	for _, s := range sessions[1:] {
		if s.ID >= latest.ID {
			latest = s
		}
	}
	return latest
}

// RecentTotals returns the points of the last window records, in list order.
// Records without a point are skipped.
func RecentTotals(sessions []models.Session, window int) []float64 {
	if window > len(sessions) {
		window = len(sessions)
	}
	if window < 0 {
		window = 0
	}
	totals := make([]float64, 0, window)
	for _, s := range sessions[len(sessions)-window:] {
		if s.Point != nil {
			totals = append(totals, float64(*s.Point))
		}
	}
	return totals
}

// Percent renders p in [0,1] as a percentage with two decimals, e.g. "53.05%".
func Percent(p float64) string {
	return ensemble.Fixed2(p*100) + "%"
}

func resultLabel(s models.Session) *string {
	if s.Result != "" {
		raw := s.Result
		return &raw
	}
	if label := s.Outcome().Label(); label != "" {
		return &label
	}
	return nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, datasource.ErrSourceTimeout):
		return "timeout"
	case errors.Is(err, datasource.ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, datasource.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
