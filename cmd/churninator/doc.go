// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package main 提供 Churninator 命令行程序入口。

# 概述

cmd/churninator 是动作解析、归一化、数据集预处理与点击评测的可执行入口。
程序支持 YAML 配置文件加载（--config）、环境变量覆盖（CHURNINATOR_*）、
结构化日志（zap）、Prometheus 指标（textfile 输出）以及 OpenTelemetry 追踪。

# 子命令

  - parse：解析调用语法，输出 JSON
  - normalize：将动作重写到规范动作空间，格式错误的动作输出到 stderr 并以 1 退出
  - preprocess：批量转换原始轨迹数据集，输出统计信息
  - eval：按 ground-truth 边界框为点击预测打分，输出评测报告
  - logs：读取并可选地持续订阅某次运行的 Redis 日志频道
  - version / help

# 退出码

  - 0：成功
  - 1：执行失败（包括格式错误的动作）
  - 2：参数错误

# 构建注入

Version、BuildTime、GitCommit 通过 ldflags 设置。
*/
package main
