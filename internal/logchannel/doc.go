// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
包 logchannel 通过 Redis 发布/订阅向前端推送运行日志与截图。

# 概述

代理浏览器在执行任务时会逐行产生运行日志，并在每个动作后截图。
Publisher 将日志发布到 logs:<run_id> 频道，将 base64 截图发布到
frames:<run_id> 频道；运行结束时截图频道会收到 "END"。

Publisher 同时满足 browser.LogSink 与 browser.FrameSink，
可直接作为 AgenticBrowser 的输出目标。

# 核心类型

  - Publisher：持有 go-redis 客户端，负责发布、订阅、历史读取与健康检查。
  - Config：Redis 地址、连接池、频道前缀与日志历史保留时长。

# 历史

配置 HistoryTTL 后，每行日志在发布的同时追加到 logs:<run_id>:history
列表，晚到的订阅方可以先通过 History 补齐已错过的日志。
*/
package logchannel
