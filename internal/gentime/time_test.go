package gentime

import "testing"

func TestFramesRoundTrip(t *testing.T) {
	rates := []Rate{PAL, NTSC, {Num: 24, Den: 1}, {Num: 60, Den: 1}}
	for _, r := range rates {
		for _, f := range []int64{0, 1, 24, 25, 1001, 99999, -3} {
			got := FromFrames(f, r).Frames(r)
			if got != f {
				t.Errorf("rate %s: frame %d round-tripped to %d", r, f, got)
			}
		}
	}
}

func TestZeroValueIsTimeZero(t *testing.T) {
	var z Time
	if !z.Equal(FromFrames(0, PAL)) {
		t.Errorf("zero value should equal frame 0")
	}
	if z.Seconds() != 0 {
		t.Errorf("expected 0 seconds, got %f", z.Seconds())
	}
}

func TestOrderingAndArithmetic(t *testing.T) {
	a := FromFrames(10, PAL)
	b := FromFrames(50, PAL)

	if !a.Before(b) || !b.After(a) || a.Compare(a) != 0 {
		t.Fatalf("ordering broken: %v %v", a, b)
	}

	diff := b.Sub(a)
	if diff.Frames(PAL) != 40 {
		t.Errorf("expected 40 frames, got %d", diff.Frames(PAL))
	}
	if !a.Add(diff).Equal(b) {
		t.Errorf("a + (b - a) should equal b")
	}
	if b.Seconds() != 2.0 {
		t.Errorf("expected 2s, got %f", b.Seconds())
	}
}

func TestCrossRateComparison(t *testing.T) {
	// one second at two different rates is the same instant
	if !FromFrames(25, PAL).Equal(FromFrames(30, Rate{Num: 30, Den: 1})) {
		t.Errorf("1s at 25fps should equal 1s at 30fps")
	}
}

func TestInvalidRate(t *testing.T) {
	var r Rate
	if r.Valid() {
		t.Fatal("zero rate must be invalid")
	}
	if FromFrames(10, r).Frames(PAL) != 0 {
		t.Errorf("invalid rate should produce time 0")
	}
}
