package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/repository"
)

var kickoff = time.Date(2026, 10, 18, 17, 0, 0, 0, time.UTC)

type mockScoreFeed struct {
	mock.Mock
}

func (m *mockScoreFeed) FetchSettlement(ctx context.Context, gameID string) (*models.Settlement, error) {
	args := m.Called(ctx, gameID)
	s, _ := args.Get(0).(*models.Settlement)
	return s, args.Error(1)
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	repo, err := repository.NewSQLiteTrackedBetRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	l, err := New(repo, config.TiersConfig{High: 0.60, Medium: 0.55}, log)
	require.NoError(t, err)

	clock := kickoff.Add(-3 * time.Hour)
	l.now = func() time.Time { return clock }
	return l
}

func scoredPick(gameID string, market models.MarketType, side models.Side, line float64, price int, conf float64) *models.ConfidenceResult {
	return &models.ConfidenceResult{
		GameID:     gameID,
		League:     "NFL",
		Market:     market,
		PickSide:   side,
		Confidence: conf,
		EdgePct:    2.5,
		LineValue:  line,
		Price:      price,
		BookID:     "pinnacle",
		StartTime:  kickoff,
	}
}

func finalSettlement(gameID string, home, away float64, closing ...models.ClosingQuote) models.Settlement {
	return models.Settlement{
		Game: models.Game{
			ID:         gameID,
			Status:     models.GameStatusFinal,
			FinalScore: models.NewFinalScore(home, away),
		},
		Closing: closing,
	}
}

func TestGradeResult(t *testing.T) {
	tests := []struct {
		name   string
		market models.MarketType
		side   models.Side
		line   float64
		home   float64
		away   float64
		want   models.BetResult
	}{
		{"home -3.5 wins by 4", models.MarketSpread, models.SideHome, -3.5, 24, 20, models.BetResultWin},
		{"home -3.5 wins by 3.5", models.MarketSpread, models.SideHome, -3.5, 23.5, 20, models.BetResultPush},
		{"home -3.5 wins by 2", models.MarketSpread, models.SideHome, -3.5, 22, 20, models.BetResultLoss},
		{"away +3.5 loses by 3", models.MarketSpread, models.SideAway, 3.5, 20, 17, models.BetResultWin},
		{"away +3 loses by 3", models.MarketSpread, models.SideAway, 3, 20, 17, models.BetResultPush},
		{"away +3 loses by 7", models.MarketSpread, models.SideAway, 3, 24, 17, models.BetResultLoss},
		{"over 47.5 lands 51", models.MarketTotal, models.SideOver, 47.5, 30, 21, models.BetResultWin},
		{"over 47.5 lands 47.5", models.MarketTotal, models.SideOver, 47.5, 24, 23.5, models.BetResultPush},
		{"over 47.5 lands 40", models.MarketTotal, models.SideOver, 47.5, 24, 16, models.BetResultLoss},
		{"under 47.5 lands 40", models.MarketTotal, models.SideUnder, 47.5, 24, 16, models.BetResultWin},
		{"under 47.5 lands 51", models.MarketTotal, models.SideUnder, 47.5, 30, 21, models.BetResultLoss},
		{"home moneyline win", models.MarketMoneyline, models.SideHome, 0, 21, 20, models.BetResultWin},
		{"away moneyline loss", models.MarketMoneyline, models.SideAway, 0, 21, 20, models.BetResultLoss},
		{"moneyline tie", models.MarketMoneyline, models.SideHome, 0, 20, 20, models.BetResultLoss},
		{"away moneyline tie", models.MarketMoneyline, models.SideAway, 0, 20, 20, models.BetResultLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GradeResult(tt.market, tt.side, tt.line, models.NewFinalScore(tt.home, tt.away))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGradeResult_IncompleteScore(t *testing.T) {
	home := 21.0
	got, ok := GradeResult(models.MarketSpread, models.SideHome, -3.5, &models.FinalScore{Home: &home})
	assert.False(t, ok)
	assert.Equal(t, models.BetResultPending, got)

	_, ok = GradeResult(models.MarketTotal, models.SideHome, 47.5, models.NewFinalScore(21, 20))
	assert.False(t, ok)
}

func TestClosingLineValue(t *testing.T) {
	tests := []struct {
		name    string
		market  models.MarketType
		side    models.Side
		line    float64
		price   int
		closing models.ClosingQuote
		want    float64
	}{
		{"spread favorite beat the close", models.MarketSpread, models.SideHome, -3.5, -110, models.ClosingQuote{LineValue: -4.5}, 1.0},
		{"spread dog beat the close", models.MarketSpread, models.SideAway, 3.5, -110, models.ClosingQuote{LineValue: 3}, 0.5},
		{"spread dog behind the close", models.MarketSpread, models.SideAway, 3, -110, models.ClosingQuote{LineValue: 3.5}, -0.5},
		{"over beat the close", models.MarketTotal, models.SideOver, 47.5, -110, models.ClosingQuote{LineValue: 49}, 1.5},
		{"under behind the close", models.MarketTotal, models.SideUnder, 47.5, -110, models.ClosingQuote{LineValue: 49}, -1.5},
		{"moneyline steamed", models.MarketMoneyline, models.SideHome, 0, -110, models.ClosingQuote{Price: -130}, (130.0/230.0 - 110.0/210.0) * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet := &models.TrackedBet{Market: tt.market, PickSide: tt.side, LineAtPick: tt.line, PriceAtPick: tt.price}
			got, ok := ClosingLineValue(bet, tt.closing)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRecordPick(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	pick := scoredPick("g1", models.MarketSpread, models.SideHome, -3.5, -110, 0.58)
	bet, err := l.RecordPick(ctx, pick, models.StakeRecommendation{FractionOfBankroll: 0.0296})
	require.NoError(t, err)
	assert.Equal(t, models.BetResultPending, bet.Result)
	assert.InDelta(t, -3.5, bet.LineAtPick, 1e-12)
	assert.Equal(t, -110, bet.PriceAtPick)
	assert.InDelta(t, 0.0296, bet.StakeFraction, 1e-12)
	assert.Equal(t, kickoff, bet.StartTime)

	again, err := l.RecordPick(ctx, pick, models.StakeRecommendation{FractionOfBankroll: 0.05})
	require.NoError(t, err)
	assert.Equal(t, bet.ID, again.ID)
	assert.InDelta(t, 0.0296, again.StakeFraction, 1e-12)

	_, err = l.RecordPick(ctx, nil, models.StakeRecommendation{})
	assert.Error(t, err)
}

func TestGrade_SpreadWithClosingLine(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	bet, err := l.RecordPick(ctx, scoredPick("g1", models.MarketSpread, models.SideHome, -3.5, -110, 0.58), models.StakeRecommendation{FractionOfBankroll: 0.03})
	require.NoError(t, err)

	settlement := finalSettlement("g1", 24, 20, models.ClosingQuote{
		Market: models.MarketSpread, Side: models.SideHome, LineValue: -4.5, Price: -105,
	})
	graded, outcome, err := l.Grade(ctx, bet.ID, settlement)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeOK, outcome)
	assert.Equal(t, models.BetResultWin, graded.Result)
	require.NotNil(t, graded.CLV)
	assert.InDelta(t, 1.0, *graded.CLV, 1e-12)
	require.NotNil(t, graded.ClosingPrice)
	assert.Equal(t, -105, *graded.ClosingPrice)
	require.NotNil(t, graded.GradedAt)

	stored, err := l.Get(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetResultWin, stored.Result)
	assert.True(t, stored.IsSettled())
}

func TestGrade_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	bet, err := l.RecordPick(ctx, scoredPick("g1", models.MarketTotal, models.SideOver, 47.5, -110, 0.57), models.StakeRecommendation{FractionOfBankroll: 0.02})
	require.NoError(t, err)

	first, outcome, err := l.Grade(ctx, bet.ID, finalSettlement("g1", 30, 21))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeOK, outcome)
	assert.Equal(t, models.BetResultWin, first.Result)

	// a corrected feed must not rewrite a terminal bet
	second, outcome, err := l.Grade(ctx, bet.ID, finalSettlement("g1", 20, 10))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeOK, outcome)
	assert.Equal(t, first.Result, second.Result)
	require.True(t, second.ActualScore.IsComplete())
	assert.Equal(t, *first.ActualScore.Home, *second.ActualScore.Home)
	assert.Equal(t, *first.ActualScore.Away, *second.ActualScore.Away)
	assert.True(t, first.GradedAt.Equal(*second.GradedAt))

	third, _, err := l.Grade(ctx, bet.ID, finalSettlement("g1", 20, 10))
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestGrade_Ambiguous(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	bet, err := l.RecordPick(ctx, scoredPick("g1", models.MarketMoneyline, models.SideAway, 0, 140, 0.45), models.StakeRecommendation{})
	require.NoError(t, err)

	live := models.Settlement{Game: models.Game{ID: "g1", Status: models.GameStatusLive, FinalScore: models.NewFinalScore(10, 7)}}
	got, outcome, err := l.Grade(ctx, bet.ID, live)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeGradingAmbiguous, outcome)
	assert.Equal(t, models.BetResultPending, got.Result)

	home := 24.0
	partial := models.Settlement{Game: models.Game{ID: "g1", Status: models.GameStatusFinal, FinalScore: &models.FinalScore{Home: &home}}}
	got, outcome, err = l.Grade(ctx, bet.ID, partial)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeGradingAmbiguous, outcome)
	assert.Equal(t, models.BetResultPending, got.Result)
	assert.Nil(t, got.GradedAt)
}

func TestGrade_Errors(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.Grade(ctx, uuid.New(), finalSettlement("g1", 1, 0))
	assert.ErrorIs(t, err, models.ErrNotFound)

	bet, err := l.RecordPick(ctx, scoredPick("g1", models.MarketSpread, models.SideHome, -3.5, -110, 0.58), models.StakeRecommendation{})
	require.NoError(t, err)
	_, _, err = l.Grade(ctx, bet.ID, finalSettlement("g2", 24, 20))
	assert.Error(t, err)
}

func TestGrade_ConcurrentAppliesOnce(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	bet, err := l.RecordPick(ctx, scoredPick("g1", models.MarketSpread, models.SideAway, 3.5, -110, 0.58), models.StakeRecommendation{FractionOfBankroll: 0.02})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]models.BetResult, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, _, err := l.Grade(ctx, bet.ID, finalSettlement("g1", 20, 17))
			assert.NoError(t, err)
			if got != nil {
				results[i] = got.Result
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, models.BetResultWin, r)
	}
	assert.Equal(t, 0, l.locks.size())
}

func TestGradePending(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.RecordPick(ctx, scoredPick("g1", models.MarketSpread, models.SideHome, -3.5, -110, 0.58), models.StakeRecommendation{FractionOfBankroll: 0.02})
	require.NoError(t, err)
	_, err = l.RecordPick(ctx, scoredPick("g1", models.MarketTotal, models.SideUnder, 47.5, -110, 0.56), models.StakeRecommendation{FractionOfBankroll: 0.01})
	require.NoError(t, err)
	_, err = l.RecordPick(ctx, scoredPick("g2", models.MarketMoneyline, models.SideHome, 0, -150, 0.65), models.StakeRecommendation{FractionOfBankroll: 0.03})
	require.NoError(t, err)
	_, err = l.RecordPick(ctx, scoredPick("g3", models.MarketMoneyline, models.SideAway, 0, 120, 0.5), models.StakeRecommendation{})
	require.NoError(t, err)

	feed := &mockScoreFeed{}
	g1 := finalSettlement("g1", 24, 20)
	feed.On("FetchSettlement", mock.Anything, "g1").Return(&g1, nil).Once()
	feed.On("FetchSettlement", mock.Anything, "g2").Return(nil, errors.New("feed timeout")).Once()
	feed.On("FetchSettlement", mock.Anything, "g3").Return(nil, nil).Once()

	summary, err := l.GradePending(ctx, feed)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Checked)
	assert.Equal(t, 2, summary.Graded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Ambiguous)
	feed.AssertExpectations(t)

	g2 := finalSettlement("g2", 27, 13)
	feed.On("FetchSettlement", mock.Anything, "g2").Return(&g2, nil).Once()
	feed.On("FetchSettlement", mock.Anything, "g3").Return(nil, nil).Once()

	summary, err = l.GradePending(ctx, feed)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Graded)
	assert.Equal(t, 1, summary.Ambiguous)
	feed.AssertExpectations(t)
}

func TestPerformance(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	type graded struct {
		pick  *models.ConfidenceResult
		stake float64
		home  float64
		away  float64
	}
	rows := []graded{
		// win at -110, high tier
		{scoredPick("g1", models.MarketSpread, models.SideHome, -3.5, -110, 0.62), 0.04, 24, 20},
		// loss, medium tier
		{scoredPick("g2", models.MarketTotal, models.SideOver, 47.5, -110, 0.57), 0.02, 20, 10},
		// push, low tier
		{scoredPick("g3", models.MarketSpread, models.SideAway, 3, -110, 0.53), 0.01, 20, 17},
	}
	for _, r := range rows {
		bet, err := l.RecordPick(ctx, r.pick, models.StakeRecommendation{FractionOfBankroll: r.stake})
		require.NoError(t, err)
		_, _, err = l.Grade(ctx, bet.ID, finalSettlement(r.pick.GameID, r.home, r.away,
			models.ClosingQuote{Market: r.pick.Market, Side: r.pick.PickSide, LineValue: r.pick.LineValue - 1, Price: -110}))
		require.NoError(t, err)
	}
	_, err := l.RecordPick(ctx, scoredPick("g4", models.MarketMoneyline, models.SideHome, 0, 150, 0.61), models.StakeRecommendation{FractionOfBankroll: 0.01})
	require.NoError(t, err)

	stats, err := l.Performance(ctx, models.TimeWindow{}, models.PerformanceFilters{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalBets)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, models.Record{Wins: 1, Losses: 1, Pushes: 1}, stats.Record)
	assert.Equal(t, "1-1-1", stats.Record.String())
	assert.InDelta(t, 0.5, stats.WinRate, 1e-12)

	d := 1 + 100.0/110.0
	assert.InDelta(t, 0.07, stats.UnitsStaked, 1e-12)
	assert.InDelta(t, 0.04*(d-1)-0.02, stats.UnitsWon, 1e-12)
	assert.InDelta(t, (0.04*(d-1)-0.02)/0.07, stats.ROI, 1e-12)
	assert.InDelta(t, (d-1)-1, stats.FlatUnits, 1e-12)
	assert.Equal(t, 3, stats.CLVSamples)

	assert.Equal(t, models.Record{Wins: 1}, stats.ByConfidence[models.TierHigh])
	assert.Equal(t, models.Record{Losses: 1}, stats.ByConfidence[models.TierMedium])
	assert.Equal(t, models.Record{Pushes: 1}, stats.ByConfidence[models.TierLow])
	assert.Equal(t, models.Record{Wins: 1, Pushes: 1}, stats.ByMarket[models.MarketSpread])

	spreadOnly, err := l.Performance(ctx, models.TimeWindow{}, models.PerformanceFilters{Market: models.MarketSpread, MinConfidence: 0.6})
	require.NoError(t, err)
	assert.Equal(t, 1, spreadOnly.TotalBets)
	assert.Equal(t, models.Record{Wins: 1}, spreadOnly.Record)

	snap, err := l.Snapshot(ctx, kickoff)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalBets)
	assert.Equal(t, 1, snap.Pending)
	assert.InDelta(t, (0.62+0.57+0.53+0.61)/4, snap.AvgConfidence, 1e-12)
	assert.NotEqual(t, uuid.Nil, snap.ID)
}

func TestTierFor(t *testing.T) {
	l := newTestLedger(t)
	assert.Equal(t, models.TierHigh, l.TierFor(0.60))
	assert.Equal(t, models.TierMedium, l.TierFor(0.55))
	assert.Equal(t, models.TierMedium, l.TierFor(0.5999))
	assert.Equal(t, models.TierLow, l.TierFor(0.5499))
}

func TestNew_InvalidTiers(t *testing.T) {
	repo, err := repository.NewSQLiteTrackedBetRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	_, err = New(repo, config.TiersConfig{High: 0.5, Medium: 0.6}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}
