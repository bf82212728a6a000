package cuid2

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestEncodeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"Zero timestamp", 0, "000000"},
		{"One second", 1, "000001"},
		{"62 seconds", 62, "000010"},
		{"One minute", 60, "00000y"},
		{"One hour", 3600, "0000w4"},
		{"One day", 86400, "000MTY"},
		{"2024-01-01", 1704067200, "1rK5iq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := encodeTimestamp(tt.seconds)
			if result != tt.expected {
				t.Errorf("encodeTimestamp(%d) = %s, want %s", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestRandomString(t *testing.T) {
	length := 18
	id := randomString(length)

	if len(id) != length {
		t.Errorf("random string length = %d, want %d", len(id), length)
	}
	for _, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("random string contains non-base62 character: %c in %s", c, id)
		}
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := randomString(length)
		if seen[id] {
			t.Errorf("generated duplicate random string: %s", id)
		}
		seen[id] = true
	}
}

func TestNewFormat(t *testing.T) {
	id := New("scan")

	if len(id) != len("scan_")+timestampLength+randomLength {
		t.Errorf("ID length incorrect: got %d in %s", len(id), id)
	}

	matched, _ := regexp.MatchString(`^scan_[0-9A-Za-z]{24}$`, id)
	if !matched {
		t.Errorf("ID format doesn't match expected pattern: %s", id)
	}
}

func TestNewTimeSortable(t *testing.T) {
	extract := func(id string) string {
		return strings.TrimPrefix(id, "scan_")[:timestampLength]
	}

	id1 := New("scan")
	time.Sleep(10 * time.Millisecond)
	id2 := New("scan")
	time.Sleep(10 * time.Millisecond)
	id3 := New("scan")

	if extract(id1) > extract(id2) {
		t.Errorf("timestamps not sorted: %s > %s", extract(id1), extract(id2))
	}
	if extract(id2) > extract(id3) {
		t.Errorf("timestamps not sorted: %s > %s", extract(id2), extract(id3))
	}
}

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := New("scan")
		if seen[id] {
			t.Errorf("generated duplicate ID: %s", id)
		}
		seen[id] = true
	}
}
