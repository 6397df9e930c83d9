// =============================================================================
// 📦 测试数据工厂 - 模型输出与数据集记录
// =============================================================================
// 提供预定义的动作文本、模型输出、原始记录与评测样本，用于测试
// =============================================================================

package fixtures

import (
	"github.com/churninator/churninator/agent/evaluation"
	"github.com/churninator/churninator/dataset"
)

// =============================================================================
// 🎯 动作文本
// =============================================================================

// 常见的原始动作及其规范形式
const (
	RawClick       = "pyautogui.click(x=0.25, y=0.75)"
	CanonicalClick = "click(x=0.25, y=0.75)"

	RawWrite       = "pyautogui.write(message='hello world')"
	CanonicalWrite = "type(text='hello world')"

	RawHotkey       = "pyautogui.hotkey(['ctrl', 'c'])"
	CanonicalHotkey = "press(keys=['ctrl', 'c'])"

	RawScroll       = "pyautogui.scroll(-0.5)"
	CanonicalScroll = "scroll(amount=50, direction='up')"
)

// ActionPair 原始动作与期望的规范形式
type ActionPair struct {
	Raw       string
	Canonical string
}

// ActionPairs 返回一组常见动作的规范化期望
func ActionPairs() []ActionPair {
	return []ActionPair{
		{Raw: RawClick, Canonical: CanonicalClick},
		{Raw: RawWrite, Canonical: CanonicalWrite},
		{Raw: RawHotkey, Canonical: CanonicalHotkey},
		{Raw: RawScroll, Canonical: CanonicalScroll},
	}
}

// =============================================================================
// 🤖 模型输出
// =============================================================================

// Stage1Completion 返回 stage-1 格式的输出（动作直接出现在文本中）
func Stage1Completion(action string) string {
	return action
}

// Stage2Completion 返回 stage-2 格式的 <think>/<code> 输出
func Stage2Completion(thought, code string) string {
	return "<think>" + thought + "</think>\n<code>\n" + code + "\n</code>"
}

// =============================================================================
// 📄 数据集记录
// =============================================================================

// RawRecords 返回一组原始数据集记录，其中一条没有可识别的动作
func RawRecords() []dataset.RawRecord {
	return []dataset.RawRecord{
		{Image: "img/0001.png", Instruction: "Open the settings menu", Action: RawClick},
		{Image: "img/0002.png", Instruction: "Type a greeting", Action: RawWrite},
		{Image: "img/0003.png", Instruction: "Copy the selection", Action: RawHotkey},
		{Image: "img/0004.png", Instruction: "Look around", Action: "no action here"},
	}
}

// ClickSamples 返回点击评测样本：正确、错误、无法解析、非点击各一条
func ClickSamples() []evaluation.Sample {
	return []evaluation.Sample{
		{
			ID:          "hit",
			Instruction: "Click the search box",
			Completion:  Stage1Completion("click(x=0.5, y=0.5)"),
			BBox:        [4]float64{0.4, 0.4, 0.6, 0.6},
		},
		{
			ID:          "miss",
			Instruction: "Click the logo",
			Completion:  Stage1Completion("click(x=0.9, y=0.9)"),
			BBox:        [4]float64{0, 0, 0.1, 0.1},
		},
		{
			ID:          "unparsed",
			Instruction: "Click the cart",
			Completion:  "I would click the cart icon",
			BBox:        [4]float64{0, 0, 1, 1},
		},
		{
			ID:          "typed",
			Instruction: "Click the button",
			Completion:  Stage1Completion("type(text='button')"),
			BBox:        [4]float64{0, 0, 1, 1},
		},
	}
}
