package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"bracefix/internal/driver"
	"bracefix/internal/source"
)

func testItems(n int) []driver.Item {
	items := make([]driver.Item, n)
	for i := range items {
		items[i] = driver.Item{Loc: source.Location{Path: "in.txt", Line: i + 1}, Expr: fmt.Sprintf("a[%d", i)}
	}
	return items
}

func TestProgressModel_AppliesEvents(t *testing.T) {
	m := NewProgressModel("repairing", testItems(3), nil).(*progressModel)

	m.Update(eventMsg(driver.Event{Index: 0, Status: driver.StatusRepairing}))
	m.Update(eventMsg(driver.Event{Index: 0, Status: driver.StatusFixed}))
	m.Update(eventMsg(driver.Event{Index: 2, Status: driver.StatusFailed}))
	// late events for finished items are ignored
	m.Update(eventMsg(driver.Event{Index: 2, Status: driver.StatusRepairing}))
	m.Update(eventMsg(driver.Event{Index: 7, Status: driver.StatusFixed}))

	if m.finished != 2 || m.failed != 1 {
		t.Fatalf("finished=%d failed=%d", m.finished, m.failed)
	}
	if m.items[2].status != driver.StatusFailed {
		t.Fatalf("item 2 status = %s", m.items[2].status)
	}

	view := m.View()
	if !strings.Contains(view, "repairing (2/3, 1 failed)") {
		t.Fatalf("unexpected header:\n%s", view)
	}
	// незавершённые строки идут первыми
	if strings.Index(view, "in.txt:2") > strings.Index(view, "in.txt:1") {
		t.Fatalf("unfinished item should be listed first:\n%s", view)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil || !m.done {
		t.Fatal("doneMsg must quit")
	}
}

func TestProgressModel_CapsRows(t *testing.T) {
	m := NewProgressModel("batch", testItems(maxRows+5), nil).(*progressModel)
	if got := len(m.visibleRows()); got != maxRows {
		t.Fatalf("visible rows = %d", got)
	}
	if !strings.Contains(m.View(), "... 5 more") {
		t.Fatalf("missing overflow marker:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("漢", 20)
	for _, width := range []int{2, 10, 25} {
		if got := runewidth.StringWidth(truncate(long, width)); got > width {
			t.Errorf("truncate(_, %d) has width %d", width, got)
		}
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("truncate ascii = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("truncate without width = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short value changed: %q", got)
	}
}
