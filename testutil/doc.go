// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package testutil 提供 Churninator 测试的共享工具和辅助函数。

# 概述

testutil 包为解析、规范化、预处理、评测与浏览器执行的测试
提供统一的辅助能力，避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext，自动注册 Cleanup 防止泄漏
  - 断言工具: AssertCallsEqual / AssertCanonical
  - 异步等待: AssertEventuallyTrue / WaitFor / WaitForChannel，
    支持超时轮询等待条件满足
  - 数据工具: MustJSON / MustParseJSON / JSONLines / DecodeJSONLines /
    CopyCalls，简化 JSONL 数据构造与深拷贝

# 子包

  - testutil/mocks: MockDriver（浏览器驱动）、MockVisionProvider（视觉模型）、
    MockSink（运行日志与截图），均支持 Builder 模式与错误注入
  - testutil/fixtures: 测试数据工厂，提供 stage-1/stage-2 模型输出、
    原始数据集记录与点击评测样本

# 使用示例

	ctx := testutil.TestContext(t)
	driver := mocks.NewMockDriver().WithViewport(1280, 720)
	provider := mocks.NewMockVisionProvider(fixtures.Stage2Completion("click", "click(x=0.5, y=0.5)"))
*/
package testutil
