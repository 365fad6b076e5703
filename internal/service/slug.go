package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	slugWhitespacePattern = regexp.MustCompile(`\s+`)
	// 保留英数字・平假名・片假名・CJK 统一表意文字与连字符
	slugInvalidPattern   = regexp.MustCompile(`[^\w\x{3040}-\x{309f}\x{30a0}-\x{30ff}\x{4e00}-\x{9faf}-]`)
	slugHyphenRunPattern = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug 从标题生成 URL 安全的小写标识符, 末尾追加
// base-36 毫秒时间戳令牌保证实际唯一性。标题退化为空时仅剩令牌。
func GenerateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugWhitespacePattern.ReplaceAllString(slug, "-")
	slug = slugInvalidPattern.ReplaceAllString(slug, "")
	slug = slugHyphenRunPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	token := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return slug + "-" + token
}
