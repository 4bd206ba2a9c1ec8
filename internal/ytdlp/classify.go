package ytdlp

import (
	"strings"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

// ClassifierVersion identifies the rule set below. yt-dlp does not promise a
// stable error vocabulary; bump this when the rules change so logged
// classifications can be compared across releases.
const ClassifierVersion = 1

// maxDetailBytes caps the error output attached to a process failure.
const maxDetailBytes = 500

type failureRule struct {
	reason  domain.FailureReason
	needles []string
}

// failureRules are checked in order against the lowercased error output; the
// first hit wins. "Private video. This video is unavailable" is private.
var failureRules = []failureRule{
	{domain.ReasonPrivate, []string{"private"}},
	{domain.ReasonUnavailable, []string{"unavailable"}},
	{domain.ReasonNotFound, []string{"not found", "404"}},
}

// ClassifyFailure maps yt-dlp error output to a failure reason using
// case-insensitive substring matching. This is a heuristic over text the
// tool may reword in any release; anything unmatched is a process error.
func ClassifyFailure(stderr string) domain.FailureReason {
	text := strings.ToLower(stderr)
	for _, rule := range failureRules {
		for _, needle := range rule.needles {
			if strings.Contains(text, needle) {
				return rule.reason
			}
		}
	}
	return domain.ReasonProcessError
}

// truncateDetail keeps the last maxDetailBytes of s, where yt-dlp prints
// its ERROR line.
func truncateDetail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDetailBytes {
		return s
	}
	s = s[len(s)-maxDetailBytes:]
	// Drop a split UTF-8 sequence at the cut.
	for len(s) > 0 && s[0]&0xC0 == 0x80 {
		s = s[1:]
	}
	return "..." + s
}
