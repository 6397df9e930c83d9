package browser

import (
	"strings"

	"github.com/churninator/churninator/agent/callparser"
	"github.com/churninator/churninator/types"
)

// Provider names accepted by ParserForProvider.
const (
	ProviderLocal       = "local"
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

// VLMResponse 模型的思考与动作
type VLMResponse struct {
	Thought string `json:"thought"`
	Action  string `json:"action"`
}

// ResponseParser 从模型原始输出中提取 VLMResponse
type ResponseParser interface {
	Parse(text string) VLMResponse
}

// Terminate builds a TERMINATE action carrying reason.
func Terminate(reason string) string {
	reason = strings.NewReplacer("'", "", `"`, "").Replace(reason)
	return "TERMINATE('" + reason + "')"
}

// TerminateResponse is what a proposer returns when it cannot continue.
func TerminateResponse(reason string) *VLMResponse {
	return &VLMResponse{Thought: reason, Action: Terminate(reason)}
}

// Stage2Parser reads the <think>...</think><code>...</code> format the
// fine-tuned model is trained on.
type Stage2Parser struct{}

// Parse implements ResponseParser. Output without a code block terminates the
// run.
func (Stage2Parser) Parse(text string) VLMResponse {
	thought, _ := callparser.ExtractTagged(text, "think")
	code, ok := callparser.ExtractTagged(text, "code")
	if !ok || code == "" {
		if thought == "" {
			thought = strings.TrimSpace(text)
		}
		return VLMResponse{
			Thought: thought,
			Action:  Terminate("Model output had no <code> block"),
		}
	}
	return VLMResponse{Thought: thought, Action: code}
}

// GenericParser handles free-form output: the last call found is the action
// and the text before it is the thought.
type GenericParser struct{}

// Parse implements ResponseParser.
func (GenericParser) Parse(text string) VLMResponse {
	calls := callparser.ExtractCallsFromFreeText(text)
	if len(calls) == 0 {
		return VLMResponse{
			Thought: strings.TrimSpace(text),
			Action:  Terminate("No action found in model output"),
		}
	}
	last := calls[len(calls)-1]
	thought := text
	if i := strings.LastIndex(text, last.RawText); i >= 0 {
		thought = text[:i]
	}
	return VLMResponse{
		Thought: strings.TrimSpace(thought),
		Action:  last.String(),
	}
}

// ParserForProvider returns the parser paired with a configured provider.
func ParserForProvider(name string) (ResponseParser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderLocal, ProviderOpenAI:
		return Stage2Parser{}, nil
	case ProviderHuggingFace:
		return GenericParser{}, nil
	default:
		return nil, types.Errorf(types.ErrInvalidConfig, "unknown VLM provider configured: %q", name)
	}
}
