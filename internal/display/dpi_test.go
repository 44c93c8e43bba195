package display

import "testing"

func TestDecodeDPI(t *testing.T) {
	tests := []struct {
		name string
		rel  RelativeDPI
		want DpiScaling
		ok   bool
	}{
		{
			name: "below recommended",
			rel:  RelativeDPI{Min: -3, Current: -1, Max: 2},
			want: DpiScaling{Minimum: 100, Recommended: 175, Current: 150, Maximum: 250},
			ok:   true,
		},
		{
			name: "at recommended",
			rel:  RelativeDPI{Min: 0, Current: 0, Max: 4},
			want: DpiScaling{Minimum: 100, Recommended: 100, Current: 100, Maximum: 200},
			ok:   true,
		},
		{name: "current above max", rel: RelativeDPI{Min: -3, Current: 3, Max: 2}},
		{name: "current below min", rel: RelativeDPI{Min: -1, Current: -2, Max: 2}},
		{name: "max outside table", rel: RelativeDPI{Min: -2, Current: 0, Max: 10}},
		{name: "positive min", rel: RelativeDPI{Min: 1, Current: 1, Max: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeDPI(tt.rel)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeDPIRoundTrip(t *testing.T) {
	for _, pct := range DpiPercents {
		rel := EncodeDPI(pct, 100)
		got, ok := DecodeDPI(rel)
		if !ok || got.Current != pct {
			t.Fatalf("percent %d: got %+v ok=%v", pct, got, ok)
		}
	}
	if rel := EncodeDPI(140, 100); rel.Current != 2 {
		t.Fatalf("expected 140%% to snap to 150%%, got step %d", rel.Current)
	}
}
