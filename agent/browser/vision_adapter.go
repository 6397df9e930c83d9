package browser

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/churninator/churninator/types"
)

// VisionProvider 视觉语言模型调用接口
type VisionProvider interface {
	// Generate returns the raw completion for an image and a prompt.
	Generate(ctx context.Context, imageBase64, prompt string) (string, error)
}

// VisionProposer 将 VisionProvider 与 ResponseParser 组合为 ActionProposer
type VisionProposer struct {
	provider VisionProvider
	parser   ResponseParser
	logger   *zap.Logger
}

// NewVisionProposer 创建视觉动作提议器
func NewVisionProposer(provider VisionProvider, parser ResponseParser, logger *zap.Logger) *VisionProposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = Stage2Parser{}
	}
	return &VisionProposer{
		provider: provider,
		parser:   parser,
		logger:   logger.With(zap.String("component", "vision_proposer")),
	}
}

// ProposeAction implements ActionProposer. Provider failures do not abort the
// run; they become a TERMINATE action carrying the reason.
func (a *VisionProposer) ProposeAction(ctx context.Context, task BrowserTask, screenshot *Screenshot, history []string) (*VLMResponse, error) {
	if screenshot == nil || len(screenshot.Data) == 0 {
		return nil, fmt.Errorf("empty screenshot")
	}

	logger := a.logger
	if runID, ok := types.RunID(ctx); ok {
		logger = logger.With(zap.String("run_id", runID))
	}

	raw, err := a.provider.Generate(ctx, ScreenshotToBase64(screenshot), BuildPrompt(task.Goal, history))
	if err != nil {
		logger.Warn("vision provider failed", zap.Error(err))
		return TerminateResponse(fmt.Sprintf("VLM provider error: %v", err)), nil
	}

	resp := a.parser.Parse(raw)
	logger.Debug("action proposed",
		zap.String("action", resp.Action),
		zap.Int("history", len(history)))
	return &resp, nil
}

// BuildPrompt renders the instruction sent with every screenshot.
func BuildPrompt(goal string, history []string) string {
	var sb strings.Builder
	sb.WriteString("You are a browser agent. Goal: ")
	sb.WriteString(goal)
	sb.WriteString("\n")
	if len(history) > 0 {
		sb.WriteString("Previous actions:\n")
		for i, h := range history {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, h)
		}
	}
	sb.WriteString(`Reply with <think>your reasoning</think><code>one action</code>.
Coordinates are normalized to 0..1. Available actions: click(x, y), double_click(x, y),
right_click(x, y), move_mouse(x, y), drag(from_coord, to_coord), type(text),
press(keys), scroll(amount, direction), wait(seconds), navigate_back(),
final_answer(answer). Use TERMINATE('reason') when the goal is reached or impossible.`)
	return sb.String()
}
