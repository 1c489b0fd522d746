package signals

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-picks/internal/models"
	"github.com/yourusername/clever-picks/internal/normalizer"
)

var now = time.Date(2024, 11, 10, 17, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testConfig() Config {
	return Config{
		SharpBooks:          []string{"pinnacle", "bookmaker", "betonlineag"},
		SquareBooks:         []string{"draftkings", "fanduel", "betmgm"},
		DivergenceThreshold: 0.5,
		RLMMinMove:          0.5,
		MinRLMBooks:         2,
		SteamBooks:          3,
		SteamThreshold:      0.5,
		SteamWindow:         30 * time.Minute,
		HistoryMaxPerSeries: 32,
	}
}

func q(book string, market models.MarketType, side models.Side, line float64, price int, ago time.Duration) models.Quote {
	return models.Quote{
		BookID:     book,
		GameID:     "game_1",
		Market:     market,
		Side:       side,
		LineValue:  line,
		Price:      price,
		ObservedAt: now.Add(-ago),
	}
}

// spreadPair quotes both sides of a spread at one book
func spreadPair(book string, homeLine float64, ago time.Duration) []models.Quote {
	return []models.Quote{
		q(book, models.MarketSpread, models.SideHome, homeLine, -110, ago),
		q(book, models.MarketSpread, models.SideAway, -homeLine, -110, ago),
	}
}

func normalize(t *testing.T, quotes []models.Quote) *normalizer.MarketQuotes {
	t.Helper()
	n := normalizer.New(normalizer.Config{MaxQuoteAge: 6 * time.Hour}, quietLogger())
	game := n.Normalize("game_1", quotes, now)
	require.NotEmpty(t, game.Markets)
	for _, mq := range game.Markets {
		return mq
	}
	return nil
}

func pct(v float64) *float64 { return &v }

func TestSharpAction_Divergence(t *testing.T) {
	var quotes []models.Quote
	quotes = append(quotes, spreadPair("pinnacle", -4.0, time.Minute)...)
	quotes = append(quotes, spreadPair("bookmaker", -4.0, time.Minute)...)
	quotes = append(quotes, spreadPair("draftkings", -3.0, time.Minute)...)
	quotes = append(quotes, spreadPair("fanduel", -3.0, time.Minute)...)

	d := NewDetector(testConfig(), quietLogger())
	bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

	require.NotNil(t, bundle.SharpDivergence)
	assert.InDelta(t, -1.0, *bundle.SharpDivergence, 1e-9)
	assert.Equal(t, models.SignalYes, bundle.SharpAction.State)
	assert.Equal(t, models.SideHome, bundle.SharpAction.Side)
	assert.Equal(t, models.SharpStrengthModerate, bundle.SharpStrength)
}

func TestSharpAction_Strength(t *testing.T) {
	tests := []struct {
		name     string
		sharp    float64
		square   float64
		state    models.SignalState
		side     models.Side
		strength models.SharpStrength
	}{
		{"below threshold", -3.0, -3.0, models.SignalNo, "", models.SharpStrengthNone},
		{"mild toward away", -2.5, -3.0, models.SignalYes, models.SideAway, models.SharpStrengthMild},
		{"strong toward home", -5.0, -3.0, models.SignalYes, models.SideHome, models.SharpStrengthStrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var quotes []models.Quote
			quotes = append(quotes, spreadPair("pinnacle", tt.sharp, time.Minute)...)
			quotes = append(quotes, spreadPair("draftkings", tt.square, time.Minute)...)

			d := NewDetector(testConfig(), quietLogger())
			bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

			assert.Equal(t, tt.state, bundle.SharpAction.State)
			assert.Equal(t, tt.side, bundle.SharpAction.Side)
			assert.Equal(t, tt.strength, bundle.SharpStrength)
		})
	}
}

func TestSharpAction_UnknownWithoutBothTiers(t *testing.T) {
	var quotes []models.Quote
	quotes = append(quotes, spreadPair("pinnacle", -5.0, time.Minute)...)
	quotes = append(quotes, spreadPair("bookmaker", -5.0, time.Minute)...)
	quotes = append(quotes, spreadPair("localbook", -2.0, time.Minute)...)

	d := NewDetector(testConfig(), quietLogger())
	bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

	assert.Nil(t, bundle.SharpDivergence)
	assert.Equal(t, models.SignalUnknown, bundle.SharpAction.State)
}

func TestSharpAction_Totals(t *testing.T) {
	quotes := []models.Quote{
		q("pinnacle", models.MarketTotal, models.SideOver, 48.0, -110, time.Minute),
		q("pinnacle", models.MarketTotal, models.SideUnder, 48.0, -110, time.Minute),
		q("fanduel", models.MarketTotal, models.SideOver, 47.0, -110, time.Minute),
		q("fanduel", models.MarketTotal, models.SideUnder, 47.0, -110, time.Minute),
	}

	d := NewDetector(testConfig(), quietLogger())
	bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

	require.NotNil(t, bundle.SharpDivergence)
	assert.InDelta(t, 1.0, *bundle.SharpDivergence, 1e-9)
	assert.True(t, bundle.SharpAction.Favors(models.SideOver))
}

func TestReverseLineMovement(t *testing.T) {
	// Home opens -3 and drifts to -2.5 at both books while the public is on home.
	var moving []models.Quote
	moving = append(moving, spreadPair("pinnacle", -3.0, 2*time.Hour)...)
	moving = append(moving, spreadPair("pinnacle", -2.5, 10*time.Minute)...)
	moving = append(moving, spreadPair("draftkings", -3.0, 2*time.Hour)...)
	moving = append(moving, spreadPair("draftkings", -2.5, 10*time.Minute)...)

	t.Run("flags the minority side", func(t *testing.T) {
		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, moving), Inputs{PublicPct: pct(72)}, now)

		assert.Equal(t, models.SignalYes, bundle.ReverseLineMovement.State)
		assert.Equal(t, models.SideAway, bundle.ReverseLineMovement.Side)
	})

	t.Run("no movement against a minority on home", func(t *testing.T) {
		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, moving), Inputs{PublicPct: pct(30)}, now)

		assert.Equal(t, models.SignalNo, bundle.ReverseLineMovement.State)
	})

	t.Run("absent public reading abstains", func(t *testing.T) {
		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, moving), Inputs{}, now)

		assert.Equal(t, models.SignalUnknown, bundle.ReverseLineMovement.State)
	})

	t.Run("even split has no minority", func(t *testing.T) {
		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, moving), Inputs{PublicPct: pct(50)}, now)

		assert.Equal(t, models.SignalNo, bundle.ReverseLineMovement.State)
	})

	t.Run("too few tracked books abstains", func(t *testing.T) {
		var quotes []models.Quote
		quotes = append(quotes, spreadPair("pinnacle", -3.0, 2*time.Hour)...)
		quotes = append(quotes, spreadPair("pinnacle", -2.5, 10*time.Minute)...)
		quotes = append(quotes, spreadPair("draftkings", -3.0, 10*time.Minute)...)

		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, quotes), Inputs{PublicPct: pct(72)}, now)

		assert.Equal(t, models.SignalUnknown, bundle.ReverseLineMovement.State)
	})
}

func TestSteam(t *testing.T) {
	t.Run("three books move together", func(t *testing.T) {
		var quotes []models.Quote
		for _, book := range []string{"pinnacle", "draftkings", "fanduel"} {
			quotes = append(quotes, spreadPair(book, -3.0, 20*time.Minute)...)
			quotes = append(quotes, spreadPair(book, -3.5, 5*time.Minute)...)
		}

		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

		assert.Equal(t, models.SignalYes, bundle.Steam.State)
		assert.Equal(t, models.SideHome, bundle.Steam.Side)
	})

	t.Run("two reporting books abstain", func(t *testing.T) {
		var quotes []models.Quote
		for _, book := range []string{"pinnacle", "draftkings"} {
			quotes = append(quotes, spreadPair(book, -3.0, 20*time.Minute)...)
			quotes = append(quotes, spreadPair(book, -3.5, 5*time.Minute)...)
		}

		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

		assert.Equal(t, models.SignalUnknown, bundle.Steam.State)
	})

	t.Run("moves outside the window are not steam", func(t *testing.T) {
		var quotes []models.Quote
		for _, book := range []string{"pinnacle", "draftkings", "fanduel"} {
			quotes = append(quotes, spreadPair(book, -3.0, 50*time.Minute)...)
			quotes = append(quotes, spreadPair(book, -3.5, 45*time.Minute)...)
			quotes = append(quotes, spreadPair(book, -3.5, 5*time.Minute)...)
			quotes = append(quotes, spreadPair(book, -3.5, 2*time.Minute)...)
		}

		d := NewDetector(testConfig(), quietLogger())
		bundle := d.Detect(normalize(t, quotes), Inputs{}, now)

		assert.Equal(t, models.SignalNo, bundle.Steam.State)
	})

	t.Run("history accumulates across runs", func(t *testing.T) {
		d := NewDetector(testConfig(), quietLogger())
		books := []string{"pinnacle", "draftkings", "fanduel"}

		var first []models.Quote
		for _, book := range books {
			first = append(first, spreadPair(book, -3.0, 20*time.Minute)...)
		}
		bundle := d.Detect(normalize(t, first), Inputs{}, now)
		assert.Equal(t, models.SignalUnknown, bundle.Steam.State)

		var second []models.Quote
		for _, book := range books {
			second = append(second, spreadPair(book, -2.5, 2*time.Minute)...)
		}
		bundle = d.Detect(normalize(t, second), Inputs{}, now)
		assert.Equal(t, models.SignalYes, bundle.Steam.State)
		assert.Equal(t, models.SideAway, bundle.Steam.Side)
	})
}

func TestDetect_CachesBundles(t *testing.T) {
	cfg := testConfig()
	cfg.CacheTTL = time.Minute
	d := NewDetector(cfg, quietLogger())

	var quotes []models.Quote
	quotes = append(quotes, spreadPair("pinnacle", -4.0, time.Minute)...)
	quotes = append(quotes, spreadPair("draftkings", -3.0, time.Minute)...)
	mq := normalize(t, quotes)

	first := d.Detect(mq, Inputs{PublicPct: pct(60)}, now)
	second := d.Detect(mq, Inputs{PublicPct: pct(60)}, now)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)

	hits, misses, _ := d.cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	d.Detect(mq, Inputs{PublicPct: pct(65)}, now)
	_, misses, _ = d.cache.Stats()
	assert.Equal(t, uint64(2), misses)

	d.cache.Invalidate("game_1")
	assert.Equal(t, 0, d.cache.ItemCount())
}

func TestPressure(t *testing.T) {
	assert.Equal(t, 3.5, Pressure(q("a", models.MarketSpread, models.SideHome, -3.5, -110, 0)))
	assert.Equal(t, 3.5, Pressure(q("a", models.MarketSpread, models.SideAway, 3.5, -110, 0)))
	assert.Equal(t, 47.5, Pressure(q("a", models.MarketTotal, models.SideUnder, 47.5, -110, 0)))
	assert.InDelta(t, 60.0, Pressure(q("a", models.MarketMoneyline, models.SideHome, 0, -150, 0)), 1e-9)
	assert.InDelta(t, 60.0, Pressure(q("a", models.MarketMoneyline, models.SideAway, 0, 150, 0)), 1e-9)
}

func TestTierOf(t *testing.T) {
	d := NewDetector(testConfig(), quietLogger())

	assert.Equal(t, TierSharp, d.TierOf("Pinnacle"))
	assert.Equal(t, TierSquare, d.TierOf("fanduel"))
	assert.Equal(t, TierOther, d.TierOf("localbook"))
}
