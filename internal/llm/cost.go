package llm

// modelPricing is USD per million tokens.
type modelPricing struct {
	Input  float64
	Output float64
}

// pricing covers the models this deployment is expected to run. Unknown
// models cost zero rather than failing the request.
var pricing = map[string]modelPricing{
	"claude-3-haiku-20240307":   {Input: 0.25, Output: 1.25},
	"claude-3-5-haiku-20241022": {Input: 1.00, Output: 5.00},
	"gpt-3.5-turbo":             {Input: 0.50, Output: 1.50},
	"gpt-4o-mini":               {Input: 0.15, Output: 0.60},
}

// Cost returns the USD cost of one call based on token usage.
func Cost(model string, inputTokens, outputTokens int) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1_000_000 * p.Input
	outputCost := float64(outputTokens) / 1_000_000 * p.Output
	return inputCost + outputCost
}
