// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
包 metrics 提供基于 Prometheus 的动作处理链路指标采集能力，覆盖
解析、归一化、预处理、执行与评估五个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto.With
注册到调用方提供的 Registerer（为 nil 时使用默认 Registerer）。
所有指标按 namespace 隔离，支持多维度 label 分组。

# 主要能力

  - 解析指标：提取到的调用数与未命中次数，按 source 分组。
  - 归一化指标：按 canonical/status 统计改写、透传与失败的动作。
  - 预处理指标：记录状态计数与单次运行耗时。
  - 执行指标：动作执行总数与耗时，按 action/status 分组。
  - 评估指标：预测结果按 outcome 计数。

Collector 满足 actionspace.Recorder、browser.ActionRecorder、
evaluation.PredictionRecorder 与 dataset.Recorder 接口。
*/
package metrics
