package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/lmn-fulfillment/internal/knowledge"
	"github.com/jonathan/lmn-fulfillment/internal/llm"
	"github.com/jonathan/lmn-fulfillment/internal/observability"
	"github.com/jonathan/lmn-fulfillment/internal/prompts"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// CapabilitySearchCodes is the single capability the model may invoke. The
// registry is closed: anything else is answered with an error string and the
// loop continues.
const CapabilitySearchCodes = "search_condition_codes"

// maxTurns guards a runaway session. Policy sets no ceiling of its own; the
// backend's own limits apply first and this bound only stops a pathological
// call/answer cycle.
const maxTurns = 32

// Agent transforms a validated intake record into raw letter text containing
// an embedded structured payload. The loop is an explicit state machine with
// two transitions per turn: invoke a capability, or terminate with the answer.
type Agent struct {
	client  llm.Client
	search  knowledge.Searcher
	printer *observability.Printer
}

// New creates a generation agent bound to an LLM client and a search client.
func New(client llm.Client, search knowledge.Searcher) *Agent {
	return &Agent{client: client, search: search}
}

// SetPrinter enables verbose output of each search capability result.
func (a *Agent) SetPrinter(p *observability.Printer) {
	a.printer = p
}

// Generate runs the reasoning/tool loop and returns the model's final text.
// Zero tool calls is valid; so are several, typically one per condition
// needing a code. Shape-checking the embedded payload is the extractor's job,
// not this component's.
func (a *Agent) Generate(ctx context.Context, intake types.IntakeRecord) (string, error) {
	system := prompts.MustGet("letter.json", "system_directive")
	prompt := prompts.Format(prompts.MustGet("letter.json", "intake_prompt"), map[string]string{
		"Age":                 fmt.Sprintf("%d", intake.Age),
		"Sex":                 intake.Sex,
		"State":               intake.State,
		"DiagnosedConditions": strings.Join(intake.DiagnosedConditions, ", "),
		"FamilyHistory":       strings.Join(intake.FamilyHistory, ", "),
		"RiskFactors":         strings.Join(intake.RiskFactors, ", "),
		"PreventiveGoals":     intake.PreventiveGoals,
		"ProductName":         intake.ProductName,
		"BusinessName":        intake.BusinessName,
	})

	chat, err := a.client.StartChat(system, []llm.ToolSpec{searchToolSpec()}, llm.TierAdvanced)
	if err != nil {
		return "", &GenerationError{Message: "failed to start chat session", Cause: err}
	}

	turn, err := chat.Send(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Message: "backend unavailable", Cause: err}
	}

	for i := 0; i < maxTurns; i++ {
		if turn.Call == nil {
			return turn.Text, nil
		}

		result := a.dispatch(ctx, turn.Call)
		turn, err = chat.SendToolResult(ctx, turn.Call.Name, result)
		if err != nil {
			return "", &GenerationError{Message: "backend unavailable during tool exchange", Cause: err}
		}
	}

	return "", &GenerationError{Message: fmt.Sprintf("no final answer after %d turns", maxTurns)}
}

// dispatch routes a tool call through the closed capability registry. Failures
// are folded into the result payload as an error string so the loop can
// continue; they are never fatal here.
func (a *Agent) dispatch(ctx context.Context, call *llm.ToolCall) map[string]any {
	if call.Name != CapabilitySearchCodes {
		return map[string]any{"error": fmt.Sprintf("unknown capability %q", call.Name)}
	}

	query, ok := call.Args["query"].(string)
	if !ok || query == "" {
		return map[string]any{"error": "search_condition_codes requires a non-empty string 'query'"}
	}

	topK := 0
	if rawK, present := call.Args["top_k"]; present {
		// JSON numbers arrive as float64
		k, ok := rawK.(float64)
		if !ok || k < 1 {
			return map[string]any{"error": "'top_k' must be a positive integer"}
		}
		topK = int(k)
	}

	results, err := a.search.Search(ctx, query, topK)
	if err != nil {
		log.Printf("[agent] search capability failed for %q: %v", query, err)
		return map[string]any{"error": fmt.Sprintf("search unavailable: %v", err)}
	}
	if a.printer != nil {
		a.printer.PrintSearchResults(query, results)
	}

	return map[string]any{"results": resultsPayload(results)}
}

// resultsPayload flattens search results into the map shape the tool-response
// channel requires.
func resultsPayload(results []types.KnowledgeSearchResult) []any {
	payload := make([]any, 0, len(results))
	for _, r := range results {
		payload = append(payload, map[string]any{
			"code":        r.Code,
			"category":    r.Category,
			"description": r.Description,
			"score":       r.Score,
		})
	}
	return payload
}

func searchToolSpec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        CapabilitySearchCodes,
		Description: "Semantic search over the coded medical reference set. Returns ranked reference codes with category labels and descriptions.",
		Params: []llm.ToolParam{
			{Name: "query", Type: "string", Description: "Free-text condition or symptom to look up", Required: true},
			{Name: "top_k", Type: "integer", Description: "Number of results to return (default 5)"},
		},
	}
}
