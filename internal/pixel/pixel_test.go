package pixel

import (
	"math"
	"testing"
)

func TestTimeToPixels(t *testing.T) {
	s := Scale{Duration: 10, Zoom: 2, ContainerWidth: 500}
	if got := TimeToPixels(5, s); got != 500 {
		t.Errorf("TimeToPixels(5) = %v, want 500", got)
	}
	if got := TimeToPixels(5, Scale{Duration: 0, Zoom: 1, ContainerWidth: 500}); got != 0 {
		t.Errorf("TimeToPixels with zero duration = %v, want 0", got)
	}
	if got := PixelsToTime(250, s); got != 2.5 {
		t.Errorf("PixelsToTime(250) = %v, want 2.5", got)
	}
}

func TestPixelRoundTrip(t *testing.T) {
	const frame = 1.0 / 60
	zoom := DefaultZoom()
	for _, duration := range []float64{0.8, 12.5, 95, 3600} {
		for z := zoom.Min; z <= zoom.Max+1e-9; z += zoom.Step {
			s := Scale{Duration: duration, Zoom: z, ContainerWidth: 960}
			for i := 0; i <= 40; i++ {
				tm := duration * float64(i) / 40
				got := PixelsToTime(TimeToPixels(tm, s), s)
				if math.Abs(got-tm) > frame/100 {
					t.Fatalf("round trip of %v at zoom %v duration %v = %v", tm, z, duration, got)
				}
			}
		}
	}
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		t, duration, want float64
	}{
		{5, 10, 50},
		{-1, 10, 0},
		{12, 10, 100},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := ProgressPercentage(tt.t, tt.duration); got != tt.want {
			t.Errorf("ProgressPercentage(%v, %v) = %v, want %v", tt.t, tt.duration, got, tt.want)
		}
	}
}

func TestClampTime(t *testing.T) {
	if got := ClampTime(-3, 10); got != 0 {
		t.Errorf("ClampTime(-3) = %v", got)
	}
	if got := ClampTime(11, 10); got != 10 {
		t.Errorf("ClampTime(11) = %v", got)
	}
	if got := ClampTime(4.2, 10); got != 4.2 {
		t.Errorf("ClampTime(4.2) = %v", got)
	}
}

func TestZoom(t *testing.T) {
	c := DefaultZoom()
	if got := c.In(1); got != 1.1 {
		t.Errorf("In(1) = %v, want 1.1", got)
	}
	if got := c.Out(0.5); got != 0.5 {
		t.Errorf("Out(0.5) = %v, want 0.5", got)
	}
	if got := c.In(5); got != 5 {
		t.Errorf("In(5) = %v, want 5", got)
	}
	if got := c.Clamp(2.34); got != 2.3 {
		t.Errorf("Clamp(2.34) = %v, want 2.3", got)
	}
	if got := c.Label(1); got != "1:1" {
		t.Errorf("Label(1) = %q", got)
	}
	if got := c.Label(2.5); got != "2.5x" {
		t.Errorf("Label(2.5) = %q", got)
	}
}

func TestTicksAlignWithTrack(t *testing.T) {
	s := Scale{Duration: 30, Zoom: 1.5, ContainerWidth: 800}
	ticks := Ticks(s, 60)
	if len(ticks) < 2 {
		t.Fatalf("Ticks() = %v", ticks)
	}
	spacing := ticks[1].X - ticks[0].X
	if spacing < 60 {
		t.Errorf("tick spacing = %v, want >= 60", spacing)
	}
	for _, tk := range ticks {
		if tk.X != TimeToPixels(tk.Time, s) {
			t.Errorf("tick at %v drawn at %v", tk.Time, tk.X)
		}
	}
	if last := ticks[len(ticks)-1]; last.Time > s.Duration {
		t.Errorf("tick past the end: %v", last.Time)
	}
}

func TestFormatTimecode(t *testing.T) {
	tests := map[float64]string{
		0:      "0:00.0",
		4.26:   "0:04.3",
		61.5:   "1:01.5",
		599.96: "10:00.0",
	}
	for in, want := range tests {
		if got := FormatTimecode(in); got != want {
			t.Errorf("FormatTimecode(%v) = %q, want %q", in, got, want)
		}
	}
}
