package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/intent"
)

const classifierTokens = 512

// classifierPrompt is the system prompt sent with every sampling request
func classifierPrompt() string {
	names := make([]string, 0, len(apps.Kinds))
	for _, k := range apps.Kinds {
		names = append(names, fmt.Sprintf("%q", k))
	}
	return fmt.Sprintf(`You route requests for the Aether desktop. Reply with one JSON object and nothing else:
{"intent": "...", "appId": "...", "payload": {"query": "...", "content": "...", "setting": "..."}, "message": "..."}

Intents:
- OPEN_APP: open an app. appId is one of %s.
- SEARCH_FILES: find files or memories. Put the search terms in payload.query.
- WEB_SEARCH: look something up on the web. Put the terms in payload.query.
- CREATE_NOTE: write something down. Put the text in payload.content.
- TOGGLE_SETTING: change a setting. Put its name in payload.setting.
- CHAT: anything else.

message is a short confirmation shown to the user.`, strings.Join(names, ", "))
}

// samplingClassifier asks the connected client's model to classify a request
type samplingClassifier struct {
	mcp *mcpserver.MCPServer
}

func (c samplingClassifier) Classify(ctx context.Context, input string) (intent.Response, error) {
	result, err := c.mcp.RequestSampling(ctx, mcp.CreateMessageRequest{
		CreateMessageParams: mcp.CreateMessageParams{
			Messages: []mcp.SamplingMessage{
				{Role: mcp.RoleUser, Content: mcp.NewTextContent(input)},
			},
			SystemPrompt: classifierPrompt(),
			MaxTokens:    classifierTokens,
		},
	})
	if err != nil {
		return intent.Response{}, fmt.Errorf("sampling: %w", err)
	}

	text, ok := samplingText(result.Content)
	if !ok {
		return intent.Response{}, fmt.Errorf("sampling returned %T, want text", result.Content)
	}
	return decodeClassification(text)
}

// samplingText extracts text from a sampled message. Content decoded off the
// wire arrives as a generic map.
func samplingText(content interface{}) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		if c == nil {
			return "", false
		}
		return c.Text, true
	case map[string]interface{}:
		if c["type"] != "text" {
			return "", false
		}
		text, ok := c["text"].(string)
		return text, ok
	default:
		return "", false
	}
}

// decodeClassification parses the model's reply, tolerating a code fence
func decodeClassification(text string) (intent.Response, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var resp intent.Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return intent.Response{}, fmt.Errorf("decode classification: %w", err)
	}
	return resp, nil
}
