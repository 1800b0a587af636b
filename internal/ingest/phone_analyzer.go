package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// PhoneInfo 电话号码分析结果
type PhoneInfo struct {
	Formatted string // 规范化后的显示形式
	Country   string // India / United States / Unknown
	Region    string // IN / US / XX
	IsValid   bool
}

var (
	phoneAllowedRe = regexp.MustCompile(`[^0-9+\-\s()]`)
	phoneDigitsRe  = regexp.MustCompile(`[^0-9]`)

	// 印度手机号：可选国家前缀 +91/91/0，10位，6-9开头
	indiaMobileRe = regexp.MustCompile(`^(?:91|0)?([6-9][0-9]{9})$`)
	// US/NANP：可选前缀 1，区号和局号都是 2-9 开头
	usNanpRe = regexp.MustCompile(`^1?([2-9][0-9]{2}[2-9][0-9]{2}[0-9]{4})$`)
)

// AnalyzePhone 分析一个原始电话字符串，返回规范化结果。
// 返回 nil 表示"不是电话号码"（数字少于6位）。
//
// 匹配顺序有意义：先尝试国家特定模式，再回落到"未知但可能有效"，
// 避免把有效的印度/US号码误判为不透明号码。
func AnalyzePhone(raw string) *PhoneInfo {
	cleaned := strings.TrimSpace(phoneAllowedRe.ReplaceAllString(raw, ""))
	digits := phoneDigitsRe.ReplaceAllString(cleaned, "")

	if len(digits) < 6 {
		return nil
	}

	// 2/0 开头的号码与本地拨号前缀无法区分，按不透明/历史号码处理，不做重排
	if digits[0] == '2' || digits[0] == '0' {
		return &PhoneInfo{
			Formatted: cleaned,
			Country:   "Unknown",
			Region:    "XX",
			IsValid:   len(digits) >= 8,
		}
	}

	if m := indiaMobileRe.FindStringSubmatch(digits); m != nil {
		sub := m[1]
		return &PhoneInfo{
			Formatted: fmt.Sprintf("+91 %s %s", sub[:5], sub[5:]),
			Country:   "India",
			Region:    "IN",
			IsValid:   true,
		}
	}

	if m := usNanpRe.FindStringSubmatch(digits); m != nil {
		sub := m[1]
		return &PhoneInfo{
			Formatted: fmt.Sprintf("+1 (%s) %s-%s", sub[:3], sub[3:6], sub[6:]),
			Country:   "United States",
			Region:    "US",
			IsValid:   true,
		}
	}

	if len(digits) >= 8 {
		return &PhoneInfo{
			Formatted: cleaned,
			Country:   "Unknown",
			Region:    "XX",
			IsValid:   len(digits) >= 10,
		}
	}

	return nil
}

// DigitCount 返回字符串中的数字个数
func DigitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
