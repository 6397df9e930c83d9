// Copyright (c) Churninator Authors.
// Licensed under the MIT License.

/*
Package types 提供 churninator 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent/callparser、
agent/actionspace、agent/browser、dataset 等上层模块提供统一的错误契约
与上下文传播工具，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 Retryable 与 Action 标记
  - codedError        — 领域错误（如 MalformedActionError）映射到 ErrorCode 的约定

# 主要能力

  - 错误工具链：NewError / Errorf / GetErrorCode / IsErrorCode / IsRetryable
  - Context 传播：WithTraceID / WithRunID / WithStage
*/
package types
