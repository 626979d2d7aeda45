package notify

import (
	"testing"
	"time"
)

func TestCenter_NotifyAndList(t *testing.T) {
	c := NewCenter(0, nil)

	first := c.Notify("Transaction sent", "1 SOL sent to ABCD...WXYZ", "")
	second := c.Notify("Transaction failed", "boom", VariantDestructive)
	if first == "" || second == "" || first == second {
		t.Fatalf("expected distinct ids, got %q and %q", first, second)
	}

	list := c.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != first || list[1].ID != second {
		t.Errorf("expected creation order, got %s then %s", list[0].ID, list[1].ID)
	}
	if list[0].Variant != VariantDefault {
		t.Errorf("expected default variant, got %s", list[0].Variant)
	}
	if got := list[0].ExpiresAt.Sub(list[0].CreatedAt); got != DefaultDuration {
		t.Errorf("expected %v duration, got %v", DefaultDuration, got)
	}
}

func TestCenter_Dismiss(t *testing.T) {
	c := NewCenter(time.Minute, nil)
	id := c.Notify("Hello", "", VariantDefault)

	if !c.Dismiss(id) {
		t.Fatal("expected dismiss to succeed")
	}
	if c.Dismiss(id) {
		t.Error("second dismiss should report missing")
	}
	if len(c.List()) != 0 {
		t.Error("expected empty list after dismiss")
	}
}

func TestCenter_Expiry(t *testing.T) {
	c := NewCenter(20*time.Millisecond, nil)
	c.Notify("Short-lived", "", VariantDefault)

	time.Sleep(50 * time.Millisecond)
	if n := len(c.List()); n != 0 {
		t.Errorf("expected expired notification to be hidden, got %d", n)
	}
}
