package ai

// Static per-1K-token price tables. These feed usage dashboards only and
// are never used for billing enforcement.

const (
	defaultEmbeddingModel  = "text-embedding-3-small"
	defaultCompletionModel = "gpt-4"
)

var embeddingPricePer1K = map[string]float64{
	"text-embedding-3-large": 0.00013,
	"text-embedding-3-small": 0.00002,
	"text-embedding-ada-002": 0.0001,
}

type completionPrice struct {
	input  float64
	output float64
}

var completionPricePer1K = map[string]completionPrice{
	"gpt-4":         {input: 0.03, output: 0.06},
	"gpt-3.5-turbo": {input: 0.001, output: 0.002},
}

// EstimateEmbeddingCost returns the dollar cost of embedding the given
// token count. Unknown models fall back to the default tier.
func EstimateEmbeddingCost(tokens int, model string) float64 {
	price, ok := embeddingPricePer1K[model]
	if !ok {
		price = embeddingPricePer1K[defaultEmbeddingModel]
	}
	return float64(tokens) / 1000 * price
}

// EstimateCompletionCost returns the dollar cost of a completion's total
// token usage, assuming a 70/30 input/output split since the combined
// count does not distinguish the two.
func EstimateCompletionCost(tokens int, model string) float64 {
	price, ok := completionPricePer1K[model]
	if !ok {
		price = completionPricePer1K[defaultCompletionModel]
	}
	inputTokens := float64(tokens) * 0.7
	outputTokens := float64(tokens) * 0.3
	return inputTokens/1000*price.input + outputTokens/1000*price.output
}
