package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	nonPrintingRe = regexp.MustCompile(`[^\x20-\x7E]`)
)

// NormalizeWhitespace 合并连续空白并去掉首尾空白
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// CleanText 归一化空白，并把不可打印字符替换为空格
func CleanText(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = nonPrintingRe.ReplaceAllString(s, " ")
	return NormalizeWhitespace(s)
}

// ReadableRatio 字母、数字与空白字符占全部字符的比例
func ReadableRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	readable := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			readable++
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			readable++
		}
	}
	return float64(readable) / float64(total)
}

// Truncate 按字符截断，超出部分以 "..." 结尾
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
