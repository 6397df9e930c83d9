// Package fixtures 提供动作文本、模型输出、数据集记录与评测样本的测试数据工厂。
package fixtures
