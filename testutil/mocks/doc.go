// Package mocks 提供浏览器驱动、视觉模型与运行日志输出的测试替身。
package mocks
