package playback

import (
	"fmt"
	"time"
)

// FormatTime renders a duration as M:SS with seconds floored.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
