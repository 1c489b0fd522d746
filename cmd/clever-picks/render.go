package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/yourusername/clever-picks/internal/models"
)

func renderPicks(w io.Writer, picks []models.ConfidenceResult, stakes []models.StakeRecommendation) {
	if len(picks) == 0 {
		fmt.Fprintln(w, "No picks cleared breakeven")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Game", "Market", "Pick", "Line", "Price", "Book", "Conf", "Edge", "Vig", "Stake", "Amount")
	for i, p := range picks {
		stake := "-"
		amount := "-"
		if i < len(stakes) && stakes[i].IsBet() {
			stake = fmt.Sprintf("%.2f%%", stakes[i].FractionOfBankroll*100)
			if stakes[i].Capped {
				stake += " (cap)"
			}
			amount = fmt.Sprintf("%.2f", stakes[i].Amount)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.GameID,
			string(p.Market),
			string(p.PickSide),
			formatLine(p.Market, p.LineValue),
			formatPrice(p.Price),
			p.BookID,
			fmt.Sprintf("%.3f", p.Confidence),
			fmt.Sprintf("%+.2f%%", p.EdgePct),
			fmt.Sprintf("%.2f%%", p.VigPct),
			stake,
			amount,
		)
	}
	table.Render()
}

// renderSkipped lists markets that produced no pick, grouped by outcome
func renderSkipped(w io.Writer, scores []models.GameScore) {
	byOutcome := make(map[models.Outcome][]string)
	for _, s := range scores {
		for _, m := range s.Markets {
			if m.Outcome == models.OutcomeOK {
				continue
			}
			byOutcome[m.Outcome] = append(byOutcome[m.Outcome], fmt.Sprintf("%s/%s", s.GameID, m.Market))
		}
	}
	if len(byOutcome) == 0 {
		return
	}

	outcomes := make([]string, 0, len(byOutcome))
	for o := range byOutcome {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s: %s\n", o, strings.Join(byOutcome[models.Outcome(o)], ", "))
	}
	fmt.Fprintln(w)
}

func renderParlays(w io.Writer, candidates []models.ParlayCandidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No parlay candidates")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Legs", "Joint", "Payout", "EV", "Correlated")
	for i, c := range candidates {
		legs := make([]string, len(c.Legs))
		for j, l := range c.Legs {
			legs[j] = fmt.Sprintf("%s %s %s %s", l.GameID, l.Market, l.PickSide, formatPrice(l.Price))
		}
		correlated := ""
		if c.Correlated {
			correlated = "yes"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			strings.Join(legs, "\n"),
			fmt.Sprintf("%.4f", c.JointProbability),
			fmt.Sprintf("%.2fx", c.PayoutMultiplier),
			fmt.Sprintf("%+.4f", c.ExpectedValue),
			correlated,
		)
	}
	table.Render()
}

func renderBets(w io.Writer, bets []*models.TrackedBet) {
	table := tablewriter.NewWriter(w)
	table.Header("Bet", "Game", "Market", "Pick", "Line", "Price", "Result", "Score", "CLV")
	for _, b := range bets {
		score := "-"
		if b.ActualScore.IsComplete() {
			score = fmt.Sprintf("%g-%g", *b.ActualScore.Home, *b.ActualScore.Away)
		}
		clv := "-"
		if b.CLV != nil {
			clv = fmt.Sprintf("%+.2f", *b.CLV)
		}
		table.Append(
			b.ID.String(),
			b.GameID,
			string(b.Market),
			string(b.PickSide),
			formatLine(b.Market, b.LineAtPick),
			formatPrice(b.PriceAtPick),
			string(b.Result),
			score,
			clv,
		)
	}
	table.Render()
}

func renderSweep(w io.Writer, s models.SweepSummary) {
	fmt.Fprintf(w, "Checked %d pending bet(s): %d graded, %d ambiguous, %d failed in %s\n",
		s.Checked, s.Graded, s.Ambiguous, s.Failed, s.Duration.Round(time.Millisecond))
}

func renderPerformance(w io.Writer, stats *models.PerformanceStats, snap *models.LedgerSnapshot) {
	fmt.Fprintf(w, "Record %s  win rate %.1f%%  pending %d of %d\n",
		stats.Record, stats.WinRate*100, stats.Pending, stats.TotalBets)
	fmt.Fprintf(w, "Units staked %.4f  won %+.4f  ROI %+.2f%%  flat %+.2fu\n",
		stats.UnitsStaked, stats.UnitsWon, stats.ROI*100, stats.FlatUnits)
	if stats.CLVSamples > 0 {
		fmt.Fprintf(w, "Average CLV %+.2f over %d bet(s)\n", stats.AverageCLV, stats.CLVSamples)
	}
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.Header("Bucket", "Record", "Win %")
	for _, tier := range []models.ConfidenceTier{models.TierHigh, models.TierMedium, models.TierLow} {
		rec := stats.ByConfidence[tier]
		table.Append("confidence "+string(tier), rec.String(), fmt.Sprintf("%.1f", rec.WinRate()*100))
	}
	markets := make([]string, 0, len(stats.ByMarket))
	for m := range stats.ByMarket {
		markets = append(markets, string(m))
	}
	sort.Strings(markets)
	for _, m := range markets {
		rec := stats.ByMarket[models.MarketType(m)]
		table.Append("market "+m, rec.String(), fmt.Sprintf("%.1f", rec.WinRate()*100))
	}
	table.Render()

	if snap != nil {
		fmt.Fprintf(w, "\nLedger: %d bet(s), %d pending, record %s, avg confidence %.3f\n",
			snap.TotalBets, snap.Pending, snap.Record, snap.AvgConfidence)
	}
}

func formatPrice(price int) string {
	if price > 0 {
		return fmt.Sprintf("+%d", price)
	}
	return fmt.Sprintf("%d", price)
}

func formatLine(market models.MarketType, line float64) string {
	switch market {
	case models.MarketMoneyline:
		return "-"
	case models.MarketTotal:
		return fmt.Sprintf("%g", line)
	}
	return fmt.Sprintf("%+g", line)
}
