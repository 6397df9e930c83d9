// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

// Package config 提供 Churninator 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（前缀 CHURNINATOR）的优先级加载，
// 覆盖日志、动作归一化、执行器、智能体循环、数据集预处理、评估、
// Redis 运行日志通道、遥测与指标各部分。Validate 一次性收集所有错误。
package config
