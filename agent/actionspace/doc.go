// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package actionspace 将异构来源的动作词表归一化为统一的规范动作空间。

# 概述

训练语料与模型输出使用多种动作写法，例如 pyautogui.click(0.5, 0.5)、
mobile.swipe((0.1, 0.2), (0.3, 0.4)) 或 pyautogui.scroll(-0.5)。
Normalizer 按固定映射表把它们改写为扁平的规范词表：

	pyautogui.click(0.5, 0.5)            -> click(x=0.5, y=0.5)
	mobile.swipe((0.1,0.2), (0.3,0.4))   -> swipe(from_coord=[0.1, 0.2], to_coord=[0.3, 0.4])
	pyautogui.scroll(-0.5)               -> scroll(amount=50, direction='up')
	pyautogui.hscroll(0.3)               -> scroll(amount=30, direction='right')

表中未列出的名称原样通过，因此对已规范化的动作再次归一化不会产生变化。

# 错误处理

单个动作参数缺失或类型错误时返回 *MalformedActionError，该动作保持原状，
其余动作照常归一化。同一批次的全部失败汇总为 *BatchError。

# 坐标

坐标保持输入单位（通常为 0..1 归一化坐标）。Resolution 仅做校验，
像素换算由执行器按视口完成。
*/
package actionspace
