package stream

import "testing"

func TestCellReplaysLatestToNewSubscriber(t *testing.T) {
	c := NewCell[int]()
	c.Set(1)
	c.Set(2)

	var got []int
	sub := c.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Cancel()

	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("replay = %v, want [2]", got)
	}

	c.Set(3)
	if len(got) != 2 || got[1] != 3 {
		t.Fatalf("after set = %v, want [2 3]", got)
	}
}

func TestCellEmptyReplaysNothing(t *testing.T) {
	c := NewCell[string]()
	calls := 0
	sub := c.Subscribe(func(string) { calls++ })
	defer sub.Cancel()
	if calls != 0 {
		t.Fatalf("empty cell replayed %d values", calls)
	}
}

func TestDistinctCellSuppressesDuplicates(t *testing.T) {
	c := NewDistinctCell(Eq[string])
	var got []string
	sub := c.Subscribe(func(v string) { got = append(got, v) })
	defer sub.Cancel()

	c.Set("a")
	c.Set("a")
	c.Set("b")
	c.Set("b")
	c.Set("a")

	want := []string{"a", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("emissions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("emissions = %v, want %v", got, want)
		}
	}
}

func TestCellVersionCountsDistinctValues(t *testing.T) {
	c := NewDistinctCell(Eq[int])
	c.Set(7)
	c.Set(7)
	c.Set(8)
	if v := c.Version(); v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
}

func TestSubscriptionCancelStopsDelivery(t *testing.T) {
	c := NewCell[int]()
	calls := 0
	sub := c.Subscribe(func(int) { calls++ })

	c.Set(1)
	sub.Cancel()
	sub.Cancel() // idempotent
	c.Set(2)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDeriveTracksSourceDistinctly(t *testing.T) {
	src := NewCell[int]()
	derived, sub := Derive(src, func(v int) bool { return v > 0 }, Eq[bool])
	defer sub.Cancel()

	var got []bool
	dsub := derived.Subscribe(func(v bool) { got = append(got, v) })
	defer dsub.Cancel()

	src.Set(-1)
	src.Set(-5) // still false, suppressed
	src.Set(3)
	src.Set(9) // still true, suppressed
	src.Set(-2)

	want := []bool{false, true, false}
	if len(got) != len(want) {
		t.Fatalf("derived emissions = %v, want %v", got, want)
	}
}

func TestFeedDoesNotReplay(t *testing.T) {
	f := NewFeed[int]()
	f.Publish(1)

	var got []int
	sub := f.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Cancel()

	if len(got) != 0 {
		t.Fatalf("feed replayed %v", got)
	}
	f.Publish(2)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("live delivery = %v, want [2]", got)
	}
}
