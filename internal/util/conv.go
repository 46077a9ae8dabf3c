package util

import (
	"strconv"
)

// ParseIntDefault 将字符串转换为整数，解析失败时返回默认值
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampQuestionCount 把题目数量限制在 [MinQuestions, MaxQuestions]，非法值回落到默认值
func ClampQuestionCount(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n < MinQuestions {
		return MinQuestions
	}
	if n > MaxQuestions {
		return MaxQuestions
	}
	return n
}
