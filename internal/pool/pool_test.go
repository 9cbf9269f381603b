package pool

import (
	"testing"
	"time"
)

func TestLineBuffer(t *testing.T) {
	lb := NewLineBuffer([]byte("a\nbb\r\n\nccc"))

	var lines []string
	for {
		line, ok := lb.NextLine()
		if !ok {
			break
		}
		lines = append(lines, string(line))
	}

	want := []string{"a", "bb", "", "ccc"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(128)
	buf := p.Get()
	buf.Write([]byte("hello"))
	if buf.Len() != 5 {
		t.Errorf("Len = %d, want 5", buf.Len())
	}
	p.Put(buf)

	buf2 := p.Get()
	if buf2.Len() != 0 {
		t.Errorf("pooled buffer not reset, Len = %d", buf2.Len())
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-05-30 09:48:01", time.Date(2025, 5, 30, 9, 48, 1, 0, time.UTC), true},
		{"2025-05-30 09:48:01.250", time.Date(2025, 5, 30, 9, 48, 1, 250_000_000, time.UTC), true},
		{"20250530 09:48:01", time.Date(2025, 5, 30, 9, 48, 1, 0, time.UTC), true},
		{"2025-05-30", time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), true},
		{"not a time", time.Time{}, false},
		{"", time.Time{}, false},
		{"2025-05-30 12a34b56", time.Time{}, false},
		{"2025-05-30 12:34x56", time.Time{}, false},
	}

	for _, tc := range cases {
		got, err := ParseTimestamp([]byte(tc.in))
		if tc.ok && err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", tc.in, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) should fail", tc.in)
			}
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if v, err := ParseInt64([]byte("42")); err != nil || v != 42 {
		t.Errorf("ParseInt64 = %d, %v", v, err)
	}
	if v, err := ParseFloat64([]byte("-1.5e3")); err != nil || v != -1500 {
		t.Errorf("ParseFloat64 = %g, %v", v, err)
	}
	if _, err := ParseInt64([]byte("x")); err == nil {
		t.Error("ParseInt64 should fail on non-numeric input")
	}
}
