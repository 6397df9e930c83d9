// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
包 browser 将模型给出的调用语法动作落实为浏览器操作。

# 概述

视觉语言模型每一步输出一个动作，例如 click(x=0.41, y=0.07)。
Executor 使用 callparser 解析动作文本，按规范动作词表分派到
BrowserDriver，并把归一化坐标（0..1）按视口换算为像素。
视口未知时使用 1920x1080。

# 核心接口

  - BrowserDriver：底层浏览器控制接口（Navigate / Screenshot / Click /
    MoveMouse / DragTo / Type / Press / Scroll / Back / URL）
  - ActionProposer：根据截图与历史提出下一步动作
  - ResponseParser：从模型原始输出提取思考与动作，
    Stage2Parser 处理 <think>/<code> 格式，GenericParser 处理自由文本
  - LogSink / FrameSink：运行日志与截图帧的发布通道

# 主要能力

  - 动作执行：click / double_click / right_click / move_mouse / drag /
    type / press / scroll / wait / navigate_back，
    final_answer 与 TERMINATE 结束运行
  - 运行日志：每个动作发布 "Executing: ..."，解析失败发布
    "Parser Error: ..."，执行失败发布 "Execution Error: ..."
  - Vision-Action Loop：AgenticBrowser 实现
    "截图 → 提议 → 执行" 循环，使用 rate.Limiter 控制节奏，
    支持最大动作数、超时与失败重试
  - 提供方选择：ParserForProvider 按配置的 local / openai / huggingface
    选择解析器
*/
package browser
