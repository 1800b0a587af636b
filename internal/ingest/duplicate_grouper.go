package ingest

import (
	"strings"

	"contacthub-data/internal/domain"
)

// DuplicateKey 去重分组key：姓名小写并去掉所有空白。
// 刻意只做精确匹配，不做编辑距离/模糊匹配——单遍 O(n)，批量大小不设限。
func DuplicateKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// GroupDuplicates 对一次导入的全部联系人计算去重分组。
// key 被 >=2 个联系人共享时，这些联系人全部打上该 key；
// 孤立 key 不算重复组。返回重复组个数。
func GroupDuplicates(contacts []*domain.Contact) int {
	groups := make(map[string][]*domain.Contact, len(contacts))
	for _, c := range contacts {
		key := DuplicateKey(c.Name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], c)
	}

	count := 0
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		count++
		for _, c := range members {
			c.DuplicateGroup = key
		}
	}
	return count
}
