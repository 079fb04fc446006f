package downloader

import "strings"

// progress is what one CLI output line says about the download.
type progress struct {
	// Percent is -1 when the line carries no percentage.
	Percent int
	AuthURL string
}

// progressTracker rate-limits progress events to one per 10% bucket,
// monotonically: a percentage that jumps back never re-emits.
type progressTracker struct {
	lastBucket  int
	lastPercent int
}

func newProgressTracker() *progressTracker {
	return &progressTracker{lastBucket: -1}
}

// advance reports whether percent enters a new 10% bucket.
func (t *progressTracker) advance(percent int) bool {
	if percent < 0 || percent > 100 {
		return false
	}
	bucket := percent / 10
	if bucket <= t.lastBucket {
		return false
	}
	t.lastBucket = bucket
	t.lastPercent = percent
	return true
}

func (t *progressTracker) last() int {
	return t.lastPercent
}

// parseProgress extracts a percentage or a device-auth challenge from one
// line of CLI output.
func parseProgress(line string) progress {
	p := progress{Percent: -1}

	if code := extractAuthCode(line); code != "" {
		p.AuthURL = "https://accounts.hytale.com/device?user_code=" + code
		return p
	}

	if idx := strings.Index(line, "%"); idx >= 0 {
		p.Percent = parsePercent(line[:idx])
	}
	return p
}

// parsePercent reads the integer part of the number immediately before
// the percent sign, returning -1 when there is none.
func parsePercent(before string) int {
	end := len(before)
	start := end
	for start > 0 {
		c := before[start-1]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		start--
	}
	if start == end {
		return -1
	}

	number := before[start:end]
	if dot := strings.Index(number, "."); dot >= 0 {
		number = number[:dot]
	}
	if number == "" {
		return -1
	}

	value := 0
	for i := 0; i < len(number); i++ {
		value = value*10 + int(number[i]-'0')
	}
	if value > 100 {
		return -1
	}
	return value
}

// extractAuthCode finds the device code in lines like
// "Authorization code: ABCD-1234".
func extractAuthCode(line string) string {
	lower := strings.ToLower(line)
	idx := strings.Index(lower, "code")
	if idx < 0 {
		return ""
	}

	after := line[idx:]
	colon := strings.Index(after, ":")
	if colon < 0 {
		return ""
	}

	fields := strings.Fields(after[colon+1:])
	if len(fields) == 0 {
		return ""
	}

	code := fields[0]
	if len(code) < 4 {
		return ""
	}
	return code
}
