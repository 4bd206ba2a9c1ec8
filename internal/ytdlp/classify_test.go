package ytdlp

import (
	"strings"
	"testing"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   domain.FailureReason
	}{
		{"private", "ERROR: [TikTok] 7234: Private video", domain.ReasonPrivate},
		{"private upper case", "ERROR: THIS ACCOUNT IS PRIVATE", domain.ReasonPrivate},
		{"private wins over unavailable", "ERROR: Private video. This video is unavailable", domain.ReasonPrivate},
		{"unavailable", "ERROR: [TikTok] 7234: Video unavailable", domain.ReasonUnavailable},
		{"unavailable wins over 404", "ERROR: unavailable (HTTP Error 404)", domain.ReasonUnavailable},
		{"not found", "ERROR: Video not found", domain.ReasonNotFound},
		{"http 404", "ERROR: Unable to download webpage: HTTP Error 404", domain.ReasonNotFound},
		{"generic", "ERROR: Unable to extract video data", domain.ReasonProcessError},
		{"empty", "", domain.ReasonProcessError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFailure(tt.stderr); got != tt.want {
				t.Errorf("ClassifyFailure(%q) = %q, want %q", tt.stderr, got, tt.want)
			}
		})
	}
}

func TestTruncateDetail(t *testing.T) {
	if got := truncateDetail("  short  "); got != "short" {
		t.Errorf("truncateDetail(short) = %q", got)
	}

	long := strings.Repeat("x", 2000) + "ERROR: the end"
	got := truncateDetail(long)
	if !strings.HasSuffix(got, "ERROR: the end") {
		t.Errorf("tail lost: %q", got[len(got)-20:])
	}
	if len(got) > maxDetailBytes+3 {
		t.Errorf("len = %d, want <= %d", len(got), maxDetailBytes+3)
	}
}

func TestTruncateDetail_KeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("é", 600)
	got := truncateDetail(long)
	if !strings.HasPrefix(got, "...é") {
		t.Errorf("cut left a partial rune: %q", got[:6])
	}
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(10)

	tb.Write([]byte("hello"))
	if tb.String() != "hello" || tb.Truncated() {
		t.Fatalf("got %q truncated=%v", tb.String(), tb.Truncated())
	}

	tb.Write([]byte(" world"))
	if tb.String() != "ello world" {
		t.Errorf("String() = %q, want %q", tb.String(), "ello world")
	}
	if !tb.Truncated() {
		t.Error("Truncated() should be true")
	}

	n, err := tb.Write([]byte("0123456789abcdef"))
	if err != nil || n != 16 {
		t.Errorf("Write = %d, %v", n, err)
	}
	if tb.String() != "6789abcdef" {
		t.Errorf("String() = %q, want %q", tb.String(), "6789abcdef")
	}
}
