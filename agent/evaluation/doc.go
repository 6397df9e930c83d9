// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package evaluation 对模型预测的动作进行离线评分。

# 概述

评估以 GUI grounding 基准为核心：每个样本给出指令、模型输出与目标元素
的像素区域。Benchmark 从输出中提取第一个动作，判定其是否为落在目标区域
内的 click，并按 correct、incorrect、unparsed、non_click 分类汇总。

# 输出格式

  - Stage 1：在自由文本中扫描 name(args) 调用
  - Stage 2：只读取 <code>...</code> 块中的调用

# 指标

Metric 接口与 MetricRegistry 支持按样本计算多个指标：

  - click_accuracy：点击是否命中目标区域（边界包含在内）
  - action_match：归一化后与期望动作的匹配程度
  - parse_rate：输出能否解析出动作
  - latency：模型响应延迟
*/
package evaluation
