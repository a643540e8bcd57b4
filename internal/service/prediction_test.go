package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/taixiu-ai/internal/datasource"
	"github.com/yourusername/taixiu-ai/internal/ensemble"
	"github.com/yourusername/taixiu-ai/internal/history"
	"github.com/yourusername/taixiu-ai/internal/models"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchSessions(ctx context.Context) ([]models.Session, error) {
	args := m.Called(ctx)
	sessions, _ := args.Get(0).([]models.Session)
	return sessions, args.Error(1)
}

func (m *mockSource) Name() string { return "mock" }

type brokenBackend struct {
	history.MemoryBackend
}

func (b *brokenBackend) Name() string { return "broken" }

func (b *brokenBackend) Save(ctx context.Context, data []byte) error {
	return errors.New("disk full")
}

type recordingPublisher struct {
	reports []*models.PredictionReport
}

func (p *recordingPublisher) Publish(r *models.PredictionReport) {
	p.reports = append(p.reports, r)
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, src datasource.SessionSource, backend history.Backend, seed string) (*PredictionService, *history.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()

	store := history.NewStore(backend, history.DefaultCapacity, logger)
	store.Load(context.Background())
	for _, c := range seed {
		_, _ = store.Append(context.Background(), models.Outcome(string(c)))
	}

	engine, err := ensemble.NewEngine(ensemble.DefaultTotalRange)
	require.NoError(t, err)

	svc := NewPredictionService(src, store, engine, NewReportCache(time.Minute, 10),
		PredictionConfig{Tag: "test-tag"}, logger)
	return svc, store
}

func TestPredictRecordsLatestAndScores(t *testing.T) {
	src := &mockSource{}
	src.On("FetchSessions", mock.Anything).Return([]models.Session{
		{ID: 1000, Result: "TAI", Dices: []int{3, 4, 5}},
		{ID: 1002, Result: "Xỉu", Dices: []int{1, 2, 3}},
		{ID: 1001, Result: "TAI", Dices: []int{5, 5, 6}},
	}, nil)

	svc, store := newTestService(t, src, history.NewMemoryBackend(), "TTTXXTTTT")
	pub := &recordingPublisher{}
	svc.SetPublisher(pub)

	report, err := svc.Predict(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1002), report.Session)
	assert.Equal(t, int64(1003), report.NextSession)
	assert.Equal(t, []int{1, 2, 3}, report.Dice)
	assert.Nil(t, report.Total)
	require.NotNil(t, report.Result)
	assert.Equal(t, "Xỉu", *report.Result)

	assert.Equal(t, "Tài", report.Prediction)
	assert.Equal(t, "52.54%", report.WinRates.Tai)
	assert.Equal(t, "47.46%", report.WinRates.Xiu)
	assert.Equal(t, "53.05%", report.Confidence)
	assert.Equal(t, "TTTXXTTTTX", models.Pattern(report.Pattern))
	assert.Equal(t, "test-tag", report.Tag)
	assert.NotEmpty(t, report.Explanation)

	assert.Equal(t, "TTTXXTTTTX", models.Pattern(store.Snapshot().History))

	cached, ok := svc.Reports().Get(1003)
	require.True(t, ok)
	assert.Same(t, report, cached)

	require.Len(t, pub.reports, 1)
	assert.Same(t, report, pub.reports[0])
	src.AssertExpectations(t)
}

func TestPredictUsesRecentTotals(t *testing.T) {
	src := &mockSource{}
	src.On("FetchSessions", mock.Anything).Return([]models.Session{
		{ID: 7, Result: "X", Dices: []int{2, 4, 6}, Point: intPtr(12)},
		{ID: 5, Result: "T", Point: intPtr(10)},
		{ID: 6, Result: "T", Point: intPtr(11)},
	}, nil)

	svc, _ := newTestService(t, src, history.NewMemoryBackend(), "TTTXXTTTT")

	report, err := svc.Predict(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), report.Session)
	require.NotNil(t, report.Total)
	assert.Equal(t, 12, *report.Total)
	assert.Equal(t, "53.67%", report.WinRates.Tai)
	assert.Equal(t, "46.33%", report.WinRates.Xiu)
	assert.Equal(t, "54.41%", report.Confidence)
}

func TestPredictFromEmptyHistory(t *testing.T) {
	src := &mockSource{}
	src.On("FetchSessions", mock.Anything).Return([]models.Session{
		{ID: 1, Result: "tai"},
	}, nil)

	svc, _ := newTestService(t, src, history.NewMemoryBackend(), "")

	report, err := svc.Predict(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{}, report.Dice)
	assert.Equal(t, []models.Outcome{models.OutcomeTai}, report.Pattern)
	assert.Equal(t, "63.50%", report.WinRates.Tai)
	assert.Equal(t, "36.50%", report.WinRates.Xiu)
	assert.Equal(t, "57.20%", report.Confidence)
	assert.Equal(t, "Tài", report.Prediction)
}

func TestPredictUnknownOutcomeLeavesHistory(t *testing.T) {
	src := &mockSource{}
	src.On("FetchSessions", mock.Anything).Return([]models.Session{
		{ID: 41, Result: "TAI"},
		{ID: 42, Result: "HUY"},
	}, nil)

	svc, store := newTestService(t, src, history.NewMemoryBackend(), "TXT")

	report, err := svc.Predict(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), report.Session)
	require.NotNil(t, report.Result)
	assert.Equal(t, "HUY", *report.Result)
	assert.Equal(t, "TXT", models.Pattern(report.Pattern))
	assert.Equal(t, "TXT", models.Pattern(store.Snapshot().History))
}

func TestPredictMissingResultIsNull(t *testing.T) {
	src := &mockSource{}
	src.On("FetchSessions", mock.Anything).Return([]models.Session{{ID: 9}}, nil)

	svc, _ := newTestService(t, src, history.NewMemoryBackend(), "")

	report, err := svc.Predict(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.Result)
	assert.Empty(t, report.Pattern)
	assert.Equal(t, "50.00%", report.WinRates.Tai)
	assert.Equal(t, "40.00%", report.Confidence)
}

func TestPredictSourceFailures(t *testing.T) {
	tests := []struct {
		name     string
		sessions []models.Session
		err      error
		target   error
	}{
		{"timeout", nil, datasource.NewDataSourceError("mock", datasource.ErrCodeTimeout, "slow", datasource.ErrSourceTimeout, nil), datasource.ErrSourceTimeout},
		{"unavailable", nil, datasource.NewDataSourceError("mock", datasource.ErrCodeNetworkError, "down", datasource.ErrSourceUnavailable, nil), datasource.ErrSourceUnavailable},
		{"malformed", nil, datasource.NewDataSourceError("mock", datasource.ErrCodeInvalidData, "empty", datasource.ErrMalformedPayload, nil), datasource.ErrMalformedPayload},
		{"empty list", []models.Session{}, nil, datasource.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{}
			src.On("FetchSessions", mock.Anything).Return(tt.sessions, tt.err)

			svc, store := newTestService(t, src, history.NewMemoryBackend(), "TTX")
			pub := &recordingPublisher{}
			svc.SetPublisher(pub)

			report, err := svc.Predict(context.Background())
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.target)

			assert.Equal(t, "TTX", models.Pattern(store.Snapshot().History))
			assert.Empty(t, pub.reports)
			assert.Zero(t, svc.Reports().ItemCount())
		})
	}
}

func TestPredictWriteFailureStillReports(t *testing.T) {
	src := &mockSource{}
	src.On("FetchSessions", mock.Anything).Return([]models.Session{{ID: 3, Result: "X"}}, nil)

	svc, store := newTestService(t, src, &brokenBackend{}, "")

	report, err := svc.Predict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Outcome{models.OutcomeXiu}, report.Pattern)
	assert.Equal(t, []models.Outcome{models.OutcomeXiu}, store.Snapshot().History)
}

func TestLatestSession(t *testing.T) {
	tests := []struct {
		name     string
		sessions []models.Session
		wantID   int64
		wantRes  string
	}{
		{"single", []models.Session{{ID: 5, Result: "T"}}, 5, "T"},
		{"max first", []models.Session{{ID: 9, Result: "T"}, {ID: 3, Result: "X"}}, 9, "T"},
		{"max last", []models.Session{{ID: 3, Result: "X"}, {ID: 9, Result: "T"}}, 9, "T"},
		{"tie keeps later", []models.Session{{ID: 9, Result: "T"}, {ID: 9, Result: "X"}}, 9, "X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LatestSession(tt.sessions)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, tt.wantRes, got.Result)
		})
	}
}

func TestRecentTotals(t *testing.T) {
	sessions := make([]models.Session, 0, 25)
	for i := 0; i < 25; i++ {
		s := models.Session{ID: int64(i)}
		if i%5 != 0 {
			s.Point = intPtr(i)
		}
		sessions = append(sessions, s)
	}

	got := RecentTotals(sessions, 20)
	assert.Equal(t, []float64{6, 7, 8, 9, 11, 12, 13, 14, 16, 17, 18, 19, 21, 22, 23, 24}, got)

	assert.Equal(t, []float64{1, 2}, RecentTotals(sessions[:3], 20))
	assert.Empty(t, RecentTotals(nil, 20))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "50.00%", Percent(0.5))
	assert.Equal(t, "0.00%", Percent(0))
	assert.Equal(t, "100.00%", Percent(1))
	assert.Equal(t, "53.05%", Percent(0.53048))
	assert.Equal(t, "56.13%", Percent(0.56125))
	assert.Equal(t, "43.88%", Percent(0.43875))
}

func TestPercentMatchesExplanation(t *testing.T) {
	res := &ensemble.Result{Score: ensemble.Score{PTai: 0.56125, PXiu: 0.43875}}
	text := ensemble.Explain(nil, res)

	assert.Contains(t, text, "Tài="+Percent(res.PTai))
	assert.Contains(t, text, "Xỉu="+Percent(res.PXiu))
}
