// Package tips 实现实体的审核状态机和变更提示列表。
// pending 取值见 constants：-2 草稿箱 / -1 待复核 / 0 已确认，
// 正数保留给运营自定义状态，本包只读不写。
package tips

import (
	"strings"

	"github.com/mifaly/new-ae-server/internal/constants"
)

// StickyPrefix 粘性提示前缀，带该前缀的提示在运营确认后仍保留
const StickyPrefix = "!"

const separator = ";"

// Tip 一条变更提示
type Tip struct {
	Sticky bool
	Text   string
}

// List 提示列表，入库时序列化为分号分隔的字符串
type List []Tip

// Parse 从序列化串还原提示列表
func Parse(serialized string) List {
	parts := strings.Split(serialized, separator)
	list := make(List, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, StickyPrefix) {
			list = append(list, Tip{Sticky: true, Text: strings.TrimPrefix(part, StickyPrefix)})
			continue
		}
		list = append(list, Tip{Text: part})
	}
	return list
}

// String 序列化，非空时以分号结尾
func (l List) String() string {
	if len(l) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tip := range l {
		if tip.Sticky {
			b.WriteString(StickyPrefix)
		}
		b.WriteString(tip.Text)
		b.WriteString(separator)
	}
	return b.String()
}

// Append 追加一条普通提示
func (l List) Append(text string) List {
	return append(l, Tip{Text: text})
}

// AppendSticky 追加一条粘性提示
func (l List) AppendSticky(text string) List {
	return append(l, Tip{Sticky: true, Text: text})
}

// OnClear 运营确认：只保留粘性提示
func (l List) OnClear() List {
	kept := make(List, 0, len(l))
	for _, tip := range l {
		if tip.Sticky {
			kept = append(kept, tip)
		}
	}
	return kept
}

// MarkChanged 自动变更检测命中后的审核状态迁移：
// 只有"已确认"会退回"待复核"；草稿箱本来就未确认，
// 运营自定义的正数状态不被机器改写。
func MarkChanged(pending int64) int64 {
	if pending == constants.PendingClear {
		return constants.PendingNeedsReview
	}
	return pending
}
