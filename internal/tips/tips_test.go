package tips

import (
	"testing"

	"github.com/mifaly/new-ae-server/internal/constants"
)

func TestParseAndString(t *testing.T) {
	list := Parse("!草稿箱;折扣价变更;SKU变更;")
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if !list[0].Sticky || list[0].Text != "草稿箱" {
		t.Fatalf("first tip = %+v", list[0])
	}
	if list[1].Sticky || list[1].Text != "折扣价变更" {
		t.Fatalf("second tip = %+v", list[1])
	}
	if got := list.String(); got != "!草稿箱;折扣价变更;SKU变更;" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Fatalf("Parse(\"\") = %v, want empty", got)
	}
	if got := (List{}).String(); got != "" {
		t.Fatalf("empty String() = %q", got)
	}
}

func TestOnClearKeepsSticky(t *testing.T) {
	list := Parse("!草稿箱;折扣价变更;SKU变更;")
	cleared := list.OnClear()
	if got := cleared.String(); got != "!草稿箱;" {
		t.Fatalf("OnClear() = %q, want %q", got, "!草稿箱;")
	}
}

func TestOnClearAllPlain(t *testing.T) {
	list := Parse("详情视频变更;销量低下架否?;")
	if got := list.OnClear().String(); got != "" {
		t.Fatalf("OnClear() = %q, want empty", got)
	}
}

func TestAppend(t *testing.T) {
	var list List
	list = list.Append("折扣价变更")
	list = list.AppendSticky("手动提价！！")
	if got := list.String(); got != "折扣价变更;!手动提价！！;" {
		t.Fatalf("String() = %q", got)
	}
}

func TestMarkChanged(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{constants.PendingClear, constants.PendingNeedsReview},
		{constants.PendingNeedsReview, constants.PendingNeedsReview},
		{constants.PendingDraft, constants.PendingDraft},
		{3, 3},
	}
	for _, c := range cases {
		if got := MarkChanged(c.in); got != c.want {
			t.Fatalf("MarkChanged(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
