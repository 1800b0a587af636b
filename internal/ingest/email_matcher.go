package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"contacthub-data/internal/domain"
)

var emailScanRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// ExtractEmails 从自由文本邮箱列中提取地址：
// 标准地址模式扫描，统一小写，先见先留去重。第一个地址视为主邮箱。
func ExtractEmails(field string) []string {
	matches := emailScanRe.FindAllString(field, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		addr := strings.ToLower(m)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// DistributeEmails 把一行的邮箱分配到该行产生的联系人集合上。
// 严格行内作用域，绝不跨行匹配。两遍：
//  1. 名字亲和：local-part 与联系人 first/last/全名（双向子串）命中者先得
//  2. 兜底轮转：未命中的按 index mod contactCount 轮流分配
//
// contacts 的顺序必须是 RowGraph.Contacts() 的顺序（主联系人在前），
// 轮转结果依赖这个顺序。
func DistributeEmails(emails []string, contacts []*domain.Contact) {
	if len(emails) == 0 || len(contacts) == 0 {
		return
	}

	emailSeq := 0
	assign := func(c *domain.Contact, addr string) {
		emailSeq++
		c.Emails = append(c.Emails, domain.Email{
			EmailID:   fmt.Sprintf("email_%d", emailSeq),
			Address:   addr,
			IsPrimary: len(c.Emails) == 0,
			IsValid:   true,
		})
	}

	var unmatched []string

	for _, addr := range emails {
		localPart := addr
		if at := strings.Index(addr, "@"); at >= 0 {
			localPart = addr[:at]
		}

		matched := false
		for _, c := range contacts {
			if !nameAffinity(localPart, c.Name) {
				continue
			}
			if c.HasEmailAddress(addr) {
				matched = true // 已有完全相同地址，跳过但不再进入兜底
				break
			}
			assign(c, addr)
			matched = true
			break
		}
		if !matched {
			unmatched = append(unmatched, addr)
		}
	}

	for i, addr := range unmatched {
		c := contacts[i%len(contacts)]
		if c.HasEmailAddress(addr) {
			continue
		}
		assign(c, addr)
	}
}

// nameAffinity local-part 与姓名是否有名字亲和（双向子串，大小写不敏感）
func nameAffinity(localPart, name string) bool {
	localPart = strings.ToLower(localPart)
	name = strings.ToLower(strings.TrimSpace(name))
	if localPart == "" || name == "" {
		return false
	}

	tokens := strings.Fields(name)
	candidates := make([]string, 0, 3)
	candidates = append(candidates, tokens[0]) // first name
	if len(tokens) > 1 {
		candidates = append(candidates, tokens[len(tokens)-1]) // last name
	}
	candidates = append(candidates, strings.ReplaceAll(name, " ", "")) // 无空格全名

	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if strings.Contains(localPart, cand) || strings.Contains(cand, localPart) {
			return true
		}
	}
	return false
}
