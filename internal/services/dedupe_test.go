package services

import (
	"testing"
	"time"
)

func TestDeduper(t *testing.T) {
	clock := newFakeClock()
	d := NewDeduper(10 * time.Minute)
	d.now = clock.Now

	if d.Seen("ev1") {
		t.Fatal("first sighting reported as seen")
	}
	if !d.Seen("ev1") {
		t.Fatal("second sighting not reported")
	}
	if d.Seen("") || d.Seen("") {
		t.Fatal("empty ids are never duplicates")
	}

	clock.Advance(11 * time.Minute)
	if d.Seen("ev1") {
		t.Fatal("id should be forgotten after the window")
	}
	if _, ok := d.seen["ev1"]; !ok {
		t.Fatal("id should be re-recorded")
	}
}
