package service

import (
	"regexp"
	"strings"
)

// DefaultExcerptLength 是列表视图摘要的默认最大长度。
const DefaultExcerptLength = 150

var (
	excerptCodeBlockPattern  = regexp.MustCompile("(?s)```.*?```")
	excerptInlineCodePattern = regexp.MustCompile("`[^`]+`")
	excerptHeadingPattern    = regexp.MustCompile(`#{1,6}\s`)
	excerptLinkPattern       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	excerptEmphasisPattern   = regexp.MustCompile(`[*_~]`)
	excerptNewlinePattern    = regexp.MustCompile(`\n+`)
)

// ExtractExcerpt 从 Markdown 正文提取纯文本摘要。超出 maxLength 时
// 按 rune 截断并追加省略号, 不考虑词边界。maxLength 非正数时使用默认值。
func ExtractExcerpt(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}

	plain := excerptCodeBlockPattern.ReplaceAllString(content, "")
	plain = excerptInlineCodePattern.ReplaceAllString(plain, "")
	plain = excerptHeadingPattern.ReplaceAllString(plain, "")
	plain = excerptLinkPattern.ReplaceAllString(plain, "$1")
	plain = excerptEmphasisPattern.ReplaceAllString(plain, "")
	plain = excerptNewlinePattern.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)

	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}

	return string(runes[:maxLength]) + "..."
}
