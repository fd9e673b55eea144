package stats

import (
	"sync"
	"testing"
)

func TestCounters_Record(t *testing.T) {
	c := New()
	c.Record(true, false)
	c.Record(false, true)
	c.Record(true, true)
	c.Record(false, false)
	c.RecordFailure()

	got := c.Snapshot()
	want := Snapshot{X: 2, Y: 2, Both: 1, Samples: 4, Failures: 1}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestSnapshot_Frequencies(t *testing.T) {
	t.Run("no samples", func(t *testing.T) {
		if got := (Snapshot{Failures: 3}).Frequencies(); got != (Frequencies{}) {
			t.Errorf("Frequencies() = %+v, want zeros", got)
		}
	})

	t.Run("quarters", func(t *testing.T) {
		got := Snapshot{X: 2, Y: 1, Both: 1, Samples: 4}.Frequencies()
		want := Frequencies{X: 0.5, Y: 0.25, Both: 0.25}
		if got != want {
			t.Errorf("Frequencies() = %+v, want %+v", got, want)
		}
	})
}

func TestSnapshot_Sub(t *testing.T) {
	prev := Snapshot{X: 1, Y: 2, Both: 1, Samples: 5, Failures: 0}
	cur := Snapshot{X: 4, Y: 2, Both: 2, Samples: 9, Failures: 1}
	want := Snapshot{X: 3, Y: 0, Both: 1, Samples: 4, Failures: 1}
	if got := cur.Sub(prev); got != want {
		t.Errorf("Sub() = %+v, want %+v", got, want)
	}
}

// W goroutines each record T outcomes; no increment may be lost.
func TestCounters_Contention(t *testing.T) {
	const goroutines, perGoroutine = 16, 5000

	c := New()
	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perGoroutine {
				// Every goroutine records x on even i, y on i%3==0.
				c.Record(i%2 == 0, i%3 == 0)
				if g == 0 && i%1000 == 0 {
					c.RecordFailure()
				}
			}
		}()
	}
	wg.Wait()

	var wantX, wantY, wantBoth uint64
	for i := range perGoroutine {
		x, y := i%2 == 0, i%3 == 0
		if x {
			wantX++
		}
		if y {
			wantY++
		}
		if x && y {
			wantBoth++
		}
	}

	got := c.Snapshot()
	want := Snapshot{
		X:        wantX * goroutines,
		Y:        wantY * goroutines,
		Both:     wantBoth * goroutines,
		Samples:  goroutines * perGoroutine,
		Failures: perGoroutine / 1000,
	}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}
