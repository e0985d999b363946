// Package llm - chat.go provides the provider-neutral multi-turn surface the
// generation agent loop consumes. The agent never sees provider SDK types.
package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// ToolParam declares one parameter of a tool exposed to the model.
type ToolParam struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// ToolSpec declares a tool the model may invoke mid-turn.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolCall is a model request to invoke a declared tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Turn is the outcome of one model turn: either final text or a tool call,
// never both.
type Turn struct {
	Text string
	Call *ToolCall
}

// Chat is a multi-turn session. Implementations suspend at each Send and
// resume synchronously with the model's reply.
type Chat interface {
	// Send submits user text and returns the model's turn
	Send(ctx context.Context, text string) (*Turn, error)
	// SendToolResult returns a tool invocation result (or error payload) to the model
	SendToolResult(ctx context.Context, name string, result map[string]any) (*Turn, error)
}

// geminiChat adapts a genai chat session to the Chat interface.
type geminiChat struct {
	session *genai.ChatSession
}

func (c *geminiChat) Send(ctx context.Context, text string) (*Turn, error) {
	resp, err := c.session.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("chat send failed: %w", err)
	}
	return turnFromResponse(resp)
}

func (c *geminiChat) SendToolResult(ctx context.Context, name string, result map[string]any) (*Turn, error) {
	resp, err := c.session.SendMessage(ctx, genai.FunctionResponse{Name: name, Response: result})
	if err != nil {
		return nil, fmt.Errorf("chat tool-result send failed: %w", err)
	}
	return turnFromResponse(resp)
}

// turnFromResponse maps a Gemini response to a Turn. A function call part wins
// over text parts; a response with neither is an error.
func turnFromResponse(resp *genai.GenerateContentResponse) (*Turn, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	var text string
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			return &Turn{Call: &ToolCall{Name: p.Name, Args: p.Args}}, nil
		case genai.Text:
			text += string(p)
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text or tool call in response")
	}
	return &Turn{Text: text}, nil
}

// toFunctionDeclarations converts neutral tool specs into Gemini declarations.
func toFunctionDeclarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		props := make(map[string]*genai.Schema, len(tool.Params))
		var required []string
		for _, param := range tool.Params {
			schemaType := genai.TypeString
			if param.Type == "integer" {
				schemaType = genai.TypeInteger
			}
			props[param.Name] = &genai.Schema{Type: schemaType, Description: param.Description}
			if param.Required {
				required = append(required, param.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return decls
}
