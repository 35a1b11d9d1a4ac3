package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category qualifies an insight for display.
type Category string

const (
	CategoryInfo    Category = "info"
	CategoryCaution Category = "caution"
	CategorySuccess Category = "success"
	CategoryDanger  Category = "danger"
)

// Insight is a qualitative alert derived from the portfolio state.
type Insight struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

const minDiversifiedPositions = 5

var (
	strongGainPercent  = decimal.NewFromInt(10)
	severeLossPercent  = decimal.NewFromInt(-10)
	concentrationLimit = decimal.NewFromInt(30)
)

// GenerateInsights applies a fixed, ordered rule set over the summary and
// positions. Rules are first-match-not-exclusive: several insights may fire,
// and the output order follows rule order.
func GenerateInsights(positions []EnrichedPosition, summary Summary) []Insight {
	insights := make([]Insight, 0, 4)

	if summary.PositionsCount < minDiversifiedPositions {
		insights = append(insights, Insight{
			Category: CategoryCaution,
			Title:    "Low Diversification",
			Message: fmt.Sprintf("Only %d position(s) held. Spreading across at "+
				"least 5-10 companies reduces single-stock risk.", summary.PositionsCount),
		})
	}

	if summary.TotalGainLossPercent.GreaterThan(strongGainPercent) {
		insights = append(insights, Insight{
			Category: CategorySuccess,
			Title:    "Strong Performance",
			Message:  fmt.Sprintf("The portfolio is up %s%%.", summary.TotalGainLossPercent.StringFixed(2)),
		})
	}

	if summary.TotalGainLossPercent.LessThan(severeLossPercent) {
		insights = append(insights, Insight{
			Category: CategoryDanger,
			Title:    "Significant Losses",
			Message: fmt.Sprintf("The portfolio is down %s%%. Consider reviewing "+
				"the strategy.", summary.TotalGainLossPercent.StringFixed(2)),
		})
	}

	if len(positions) > 0 && summary.TotalValue.IsPositive() {
		largest := positions[0].TotalValue
		for _, p := range positions[1:] {
			if p.TotalValue.GreaterThan(largest) {
				largest = p.TotalValue
			}
		}
		share := largest.Div(summary.TotalValue).Mul(hundred)
		if share.GreaterThan(concentrationLimit) {
			insights = append(insights, Insight{
				Category: CategoryCaution,
				Title:    "High Concentration",
				Message: fmt.Sprintf("A single position makes up %s%% of the "+
					"portfolio. Consider rebalancing.", share.StringFixed(1)),
			})
		}
	}

	return insights
}
