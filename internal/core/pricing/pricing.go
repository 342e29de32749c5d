package pricing

import (
	"math"

	"github.com/ccmeter/ccmeter/internal/core/model"
)

// ModelPricing defines token pricing for one model family. All rates are
// dollars per million tokens. Cache writes carry a 25% premium over input;
// cache reads cost 10% of input.
type ModelPricing struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// modelPricingMap is keyed by normalized model name (date suffix stripped).
var modelPricingMap = map[string]ModelPricing{
	"claude-sonnet-4-5": {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
	"claude-3-5-sonnet": {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
	"claude-sonnet-4":   {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
	"claude-haiku-4-5":  {Input: 1.00, Output: 5.00, CacheWrite: 1.25, CacheRead: 0.10},
	"claude-3-5-haiku":  {Input: 0.80, Output: 4.00, CacheWrite: 1.00, CacheRead: 0.08},
	"claude-opus-4":     {Input: 15.00, Output: 75.00, CacheWrite: 18.75, CacheRead: 1.50},
	"claude-opus-4-1":   {Input: 15.00, Output: 75.00, CacheWrite: 18.75, CacheRead: 1.50},
}

// defaultPricing is the Sonnet rate, used for unrecognized models.
var defaultPricing = ModelPricing{Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30}

// GetPricing returns the pricing for a model name. Synthetic infrastructure
// events are free; unknown models fall back to Sonnet rates.
func GetPricing(modelName string) ModelPricing {
	normalized := model.NormalizeModelName(modelName)
	if normalized == "<synthetic>" || normalized == "synthetic" {
		return ModelPricing{}
	}
	if p, ok := modelPricingMap[normalized]; ok {
		return p
	}
	return defaultPricing
}

// Cost computes the exact micro-dollar cost of one usage event. A rate of
// $N per million tokens is exactly N micro-dollars per token, so the only
// rounding is the final half-up round of the per-event product.
func Cost(modelName string, tokens model.TokenCounts) model.MicroUSD {
	p := GetPricing(modelName)
	v := float64(tokens.Input)*p.Input +
		float64(tokens.Output)*p.Output +
		float64(tokens.CacheWrite)*p.CacheWrite +
		float64(tokens.CacheRead)*p.CacheRead
	return model.MicroUSD(math.Round(v))
}

// CostFunc adapts the static table to the injected cost contract the
// aggregation core consumes.
func CostFunc() model.CostFunc {
	return Cost
}
