package classroom

import (
	"strings"
	"time"
)

// DefaultMarker identifies Google Slides attachments by title.
const DefaultMarker = ".gslides"

// LastUpdate returns the newest update time among attachments whose title
// contains marker and whose update time is known. ok is false when no
// attachment qualifies. turnedIn is read from the submission state and does
// not depend on the attachments.
func LastUpdate(sub Submission, marker string) (last time.Time, ok bool, turnedIn bool) {
	if marker == "" {
		marker = DefaultMarker
	}
	for _, a := range sub.Attachments {
		if !strings.Contains(a.Title, marker) || a.UpdateTime.IsZero() {
			continue
		}
		if !ok || a.UpdateTime.After(last) {
			last = a.UpdateTime
			ok = true
		}
	}
	return last, ok, sub.TurnedIn()
}
