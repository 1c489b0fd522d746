package normalizer

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-picks/internal/models"
)

var baseTime = time.Date(2024, 11, 10, 17, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func quote(book string, market models.MarketType, side models.Side, line float64, price int, age time.Duration) models.Quote {
	return models.Quote{
		BookID:     book,
		GameID:     "game_1",
		Market:     market,
		Side:       side,
		LineValue:  line,
		Price:      price,
		ObservedAt: baseTime.Add(-age),
	}
}

func TestNormalize_LatestPerBook(t *testing.T) {
	n := New(Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())

	quotes := []models.Quote{
		quote("pinnacle", models.MarketSpread, models.SideHome, -3.0, -110, 2*time.Hour),
		quote("pinnacle", models.MarketSpread, models.SideHome, -3.5, -105, 10*time.Minute),
		quote("pinnacle", models.MarketSpread, models.SideAway, 3.5, -115, 10*time.Minute),
		quote("draftkings", models.MarketSpread, models.SideHome, -3.0, -110, time.Hour),
		quote("draftkings", models.MarketSpread, models.SideAway, 3.0, -110, time.Hour),
	}

	game := n.Normalize("game_1", quotes, baseTime)
	spread := game.Market(models.MarketSpread)

	require.Equal(t, models.OutcomeOK, spread.Status)
	assert.Equal(t, 2, spread.BookCount())
	assert.Equal(t, -3.5, spread.Sides[models.SideHome]["pinnacle"].LineValue)
	assert.Equal(t, -105, spread.Sides[models.SideHome]["pinnacle"].Price)
	assert.Len(t, spread.History, 5)
	assert.True(t, spread.Usable())
}

func TestNormalize_NoQuotesIsDataUnavailable(t *testing.T) {
	n := New(Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())

	game := n.Normalize("game_1", []models.Quote{
		quote("pinnacle", models.MarketSpread, models.SideHome, -3.5, -110, time.Minute),
		quote("pinnacle", models.MarketSpread, models.SideAway, 3.5, -110, time.Minute),
	}, baseTime)

	total := game.Market(models.MarketTotal)
	assert.Equal(t, models.OutcomeDataUnavailable, total.Status)
	assert.False(t, total.Usable())
	_, ok := total.BestPrice(models.SideOver)
	assert.False(t, ok)
}

func TestNormalize_OneSidedIsDataUnavailable(t *testing.T) {
	n := New(Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())

	game := n.Normalize("game_1", []models.Quote{
		quote("pinnacle", models.MarketMoneyline, models.SideHome, 0, -150, time.Minute),
	}, baseTime)

	assert.Equal(t, models.OutcomeDataUnavailable, game.Market(models.MarketMoneyline).Status)
}

func TestNormalize_StaleQuotesExcluded(t *testing.T) {
	n := New(Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())

	game := n.Normalize("game_1", []models.Quote{
		quote("pinnacle", models.MarketTotal, models.SideOver, 47.5, -110, 7*time.Hour),
		quote("pinnacle", models.MarketTotal, models.SideUnder, 47.5, -110, 7*time.Hour),
		quote("fanduel", models.MarketTotal, models.SideOver, 48.0, -110, 8*time.Hour),
	}, baseTime)

	total := game.Market(models.MarketTotal)
	assert.Equal(t, models.OutcomeStaleData, total.Status)
	assert.Equal(t, 3, total.StaleDropped)
	assert.Equal(t, 3, game.Dropped[DropStale])
	assert.Empty(t, total.History)
}

func TestNormalize_PartiallyStaleKeepsFresh(t *testing.T) {
	n := New(Config{MaxQuoteAge: time.Hour}, quietLogger())

	game := n.Normalize("game_1", []models.Quote{
		quote("pinnacle", models.MarketTotal, models.SideOver, 47.5, -110, 2*time.Hour),
		quote("pinnacle", models.MarketTotal, models.SideOver, 48.0, -110, 30*time.Minute),
		quote("pinnacle", models.MarketTotal, models.SideUnder, 48.0, -110, 30*time.Minute),
	}, baseTime)

	total := game.Market(models.MarketTotal)
	require.Equal(t, models.OutcomeOK, total.Status)
	assert.Equal(t, 48.0, total.Sides[models.SideOver]["pinnacle"].LineValue)
	assert.Equal(t, 1, total.StaleDropped)
}

func TestNormalize_DropsInvalidQuotes(t *testing.T) {
	n := New(Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())

	other := quote("pinnacle", models.MarketSpread, models.SideHome, -3.5, -110, time.Minute)
	other.GameID = "game_2"

	game := n.Normalize("game_1", []models.Quote{
		other,
		quote("pinnacle", models.MarketSpread, models.SideOver, -3.5, -110, time.Minute),
		quote("pinnacle", models.MarketType("props"), models.SideHome, 0, -110, time.Minute),
		quote("pinnacle", models.MarketSpread, models.SideHome, -3.5, 50, time.Minute),
	}, baseTime)

	assert.Equal(t, 1, game.Dropped[DropWrongGame])
	assert.Equal(t, 1, game.Dropped[DropInvalidSide])
	assert.Equal(t, 1, game.Dropped[DropInvalidMarket])
	assert.Equal(t, 1, game.Dropped[DropInvalidPrice])
	assert.Empty(t, game.Markets)
}

func TestBestPrice(t *testing.T) {
	n := New(Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())

	game := n.Normalize("game_1", []models.Quote{
		quote("pinnacle", models.MarketSpread, models.SideHome, -3.5, -110, time.Minute),
		quote("draftkings", models.MarketSpread, models.SideHome, -3.5, -105, time.Minute),
		quote("fanduel", models.MarketSpread, models.SideHome, -3.0, -105, time.Minute),
		quote("pinnacle", models.MarketSpread, models.SideAway, 3.5, -110, time.Minute),
	}, baseTime)

	best, ok := game.Market(models.MarketSpread).BestPrice(models.SideHome)
	require.True(t, ok)
	assert.Equal(t, "fanduel", best.BookID)
	assert.Equal(t, -105, best.Price)
}

func TestBetterLine(t *testing.T) {
	assert.True(t, BetterLine(models.MarketSpread, models.SideHome, -3.0, -3.5))
	assert.True(t, BetterLine(models.MarketSpread, models.SideAway, 7.5, 7.0))
	assert.True(t, BetterLine(models.MarketTotal, models.SideOver, 47.0, 47.5))
	assert.True(t, BetterLine(models.MarketTotal, models.SideUnder, 48.0, 47.5))
	assert.False(t, BetterLine(models.MarketMoneyline, models.SideHome, 1, 0))
}
