package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

// memberMarker in a submitted identifier flags a member-only stream
const memberMarker = "ms."

var (
	urlPrefixPattern = regexp.MustCompile(`^https?://(?:www\.|m\.)?youtu(?:\.be|be\.com)/`)
	watchPattern     = regexp.MustCompile(`^(?:watch\?v=|live/|shorts/)`)
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Identifier is a parsed stream submission
type Identifier struct {
	VideoID    string
	MemberOnly bool
}

// ParseIdentifier accepts a bare video id or a YouTube URL, optionally
// carrying the member-stream marker
func ParseIdentifier(raw string) (Identifier, error) {
	var ident Identifier

	s := strings.TrimSpace(raw)
	if strings.Contains(s, memberMarker) {
		s = strings.Replace(s, memberMarker, "", 1)
		ident.MemberOnly = true
	}

	s = urlPrefixPattern.ReplaceAllString(s, "")
	s = watchPattern.ReplaceAllString(s, "")

	// Drop trailing query parameters (&t=, ?si=) and fragments
	if idx := strings.IndexAny(s, "?&#/"); idx >= 0 {
		s = s[:idx]
	}

	if !videoIDPattern.MatchString(s) {
		return Identifier{}, fmt.Errorf("invalid video id in %q", raw)
	}
	ident.VideoID = s
	return ident, nil
}
