// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	testutil.AssertCallsEqual(t, expected, actual)
//	testutil.AssertCanonical(t, "click(x=0.5, y=0.5)", calls)
// =============================================================================

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/churninator/churninator/agent/callparser"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertCallsEqual 断言两个调用切片的名称与参数相等
func AssertCallsEqual(t *testing.T, expected, actual []*callparser.Call) {
	t.Helper()

	if len(expected) != len(actual) {
		t.Errorf("call count mismatch: expected %d, got %d", len(expected), len(actual))
		return
	}

	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			t.Errorf("call[%d] mismatch: expected %s, got %s", i, expected[i], actual[i])
		}
	}
}

// AssertCanonical 断言调用的规范形式（以空格连接）等于 want
func AssertCanonical(t *testing.T, want string, calls []*callparser.Call) {
	t.Helper()

	if got := callparser.Join(calls); got != want {
		t.Errorf("canonical mismatch:\nexpected: %s\nactual:   %s", want, got)
	}
}

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	if !WaitFor(condition, timeout) {
		t.Errorf("condition did not become true within %v", timeout)
	}
}

// =============================================================================
// ⏱️ 时间辅助
// =============================================================================

// WaitFor 等待条件满足或超时
func WaitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForChannel 等待通道接收或超时
func WaitForChannel[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

// =============================================================================
// 🔧 测试数据辅助
// =============================================================================

// MustJSON 将值转换为 JSON 字符串，失败时 panic
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// MustParseJSON 解析 JSON 字符串，失败时 panic
func MustParseJSON[T any](s string) T {
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

// JSONLines 将每个值编码为一行 JSON
func JSONLines(values ...any) *bytes.Buffer {
	var buf bytes.Buffer
	for _, v := range values {
		buf.WriteString(MustJSON(v))
		buf.WriteByte('\n')
	}
	return &buf
}

// DecodeJSONLines 将 JSONL 文本逐行解码为 T，忽略空行
func DecodeJSONLines[T any](t *testing.T, data []byte) []T {
	t.Helper()

	var out []T
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			t.Fatalf("failed to decode line %q: %v", line, err)
		}
		out = append(out, v)
	}
	return out
}

// CopyCalls 深拷贝调用切片
func CopyCalls(calls []*callparser.Call) []*callparser.Call {
	if calls == nil {
		return nil
	}
	copied := make([]*callparser.Call, len(calls))
	for i, c := range calls {
		copied[i] = c.Clone()
	}
	return copied
}
