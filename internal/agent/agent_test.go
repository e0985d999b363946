package agent

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lmn-fulfillment/internal/llm"
	"github.com/jonathan/lmn-fulfillment/internal/observability"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// scriptedChat replays a fixed sequence of turns and records what was sent.
type scriptedChat struct {
	turns       []*llm.Turn
	sendErr     error
	toolResults []map[string]any
	pos         int
}

func (c *scriptedChat) next() (*llm.Turn, error) {
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	if c.pos >= len(c.turns) {
		return nil, fmt.Errorf("script exhausted")
	}
	turn := c.turns[c.pos]
	c.pos++
	return turn, nil
}

func (c *scriptedChat) Send(_ context.Context, _ string) (*llm.Turn, error) {
	return c.next()
}

func (c *scriptedChat) SendToolResult(_ context.Context, _ string, result map[string]any) (*llm.Turn, error) {
	c.toolResults = append(c.toolResults, result)
	return c.next()
}

// fakeClient hands out a pre-built chat session.
type fakeClient struct {
	chat     llm.Chat
	startErr error
}

func (f *fakeClient) StartChat(string, []llm.ToolSpec, llm.ModelTier) (llm.Chat, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.chat, nil
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeClient) Close() error                  { return nil }

// fakeSearcher records queries and returns canned results or an error.
type fakeSearcher struct {
	queries []string
	results []types.KnowledgeSearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]types.KnowledgeSearchResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func testIntake() types.IntakeRecord {
	return types.IntakeRecord{
		Age:                 32,
		State:               "NY",
		Administrator:       "HealthEquity",
		DiagnosedConditions: []string{"stress"},
		ProductName:         "Therapeutic massage program",
		BusinessName:        "Calm Springs Wellness",
	}
}

func TestGenerate_DirectAnswerWithoutToolCalls(t *testing.T) {
	chat := &scriptedChat{turns: []*llm.Turn{{Text: `{"treatment": "massage"}`}}}
	a := New(&fakeClient{chat: chat}, &fakeSearcher{})

	text, err := a.Generate(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Contains(t, text, "massage")
	assert.Empty(t, chat.toolResults, "no tool exchange expected")
}

func TestGenerate_SingleToolCallThenAnswer(t *testing.T) {
	chat := &scriptedChat{turns: []*llm.Turn{
		{Call: &llm.ToolCall{Name: CapabilitySearchCodes, Args: map[string]any{"query": "stress", "top_k": float64(3)}}},
		{Text: "final letter text"},
	}}
	search := &fakeSearcher{results: []types.KnowledgeSearchResult{
		{Code: "Z73.3", Category: "stress", Description: "Stress, not elsewhere classified", Score: 0.9},
	}}
	a := New(&fakeClient{chat: chat}, search)

	text, err := a.Generate(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Equal(t, "final letter text", text)

	require.Equal(t, []string{"stress"}, search.queries)
	require.Len(t, chat.toolResults, 1)
	assert.Contains(t, chat.toolResults[0], "results")
}

func TestGenerate_VerbosePrinterReportsSearchResults(t *testing.T) {
	chat := &scriptedChat{turns: []*llm.Turn{
		{Call: &llm.ToolCall{Name: CapabilitySearchCodes, Args: map[string]any{"query": "stress"}}},
		{Text: "final letter text"},
	}}
	search := &fakeSearcher{results: []types.KnowledgeSearchResult{
		{Code: "Z73.3", Category: "stress", Description: "Stress, not elsewhere classified", Score: 0.9},
	}}
	a := New(&fakeClient{chat: chat}, search)

	var buf bytes.Buffer
	a.SetPrinter(observability.NewPrinter(&buf))

	_, err := a.Generate(context.Background(), testIntake())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "KNOWLEDGE SEARCH")
	assert.Contains(t, out, "stress")
	assert.Contains(t, out, "Z73.3")
}

func TestGenerate_MalformedToolCallContinuesLoop(t *testing.T) {
	chat := &scriptedChat{turns: []*llm.Turn{
		{Call: &llm.ToolCall{Name: CapabilitySearchCodes, Args: map[string]any{}}}, // missing query
		{Text: "recovered"},
	}}
	a := New(&fakeClient{chat: chat}, &fakeSearcher{})

	text, err := a.Generate(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)

	require.Len(t, chat.toolResults, 1)
	assert.Contains(t, chat.toolResults[0], "error")
}

func TestGenerate_UnknownCapabilityContinuesLoop(t *testing.T) {
	chat := &scriptedChat{turns: []*llm.Turn{
		{Call: &llm.ToolCall{Name: "delete_everything", Args: map[string]any{"query": "x"}}},
		{Text: "done"},
	}}
	a := New(&fakeClient{chat: chat}, &fakeSearcher{})

	text, err := a.Generate(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Contains(t, chat.toolResults[0]["error"], "unknown capability")
}

func TestGenerate_SearchFailureContinuesLoop(t *testing.T) {
	chat := &scriptedChat{turns: []*llm.Turn{
		{Call: &llm.ToolCall{Name: CapabilitySearchCodes, Args: map[string]any{"query": "stress"}}},
		{Text: "answered without lookup"},
	}}
	a := New(&fakeClient{chat: chat}, &fakeSearcher{err: fmt.Errorf("index down")})

	text, err := a.Generate(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Equal(t, "answered without lookup", text)
	assert.Contains(t, chat.toolResults[0]["error"], "search unavailable")
}

func TestGenerate_BackendUnavailableIsFatal(t *testing.T) {
	chat := &scriptedChat{sendErr: fmt.Errorf("connection refused")}
	a := New(&fakeClient{chat: chat}, &fakeSearcher{})

	_, err := a.Generate(context.Background(), testIntake())
	require.Error(t, err)

	genErr, ok := err.(*GenerationError)
	require.True(t, ok, "error should be *GenerationError")
	assert.Contains(t, genErr.Error(), "generation incomplete")
}

func TestGenerate_StartChatFailureIsFatal(t *testing.T) {
	a := New(&fakeClient{startErr: fmt.Errorf("no model configured")}, &fakeSearcher{})

	_, err := a.Generate(context.Background(), testIntake())
	require.Error(t, err)
	_, ok := err.(*GenerationError)
	assert.True(t, ok)
}
