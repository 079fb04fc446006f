package supervisor

import (
	"strings"
)

// Console sentinels emitted by the Hytale server. The classifier matches on
// substrings because the server pads these lines with timestamps and colors.
const (
	markerAuthNeeded       = "No server tokens configured"
	markerNeedsPersistence = "Credentials stored in memory only"
	markerProfile          = "Auto-selected profile:"
	markerAuthSuccess      = "Authentication successful"
	markerAuthMode         = "Mode:"
	markerEnterCode        = "Enter code:"

	defaultAuthMode = "OAUTH_DEVICE"

	// deviceVerifyURL is the canonical verification URL, used when the
	// server prints only a code and no link.
	deviceVerifyURL = "https://oauth.accounts.hytale.com/oauth2/device/verify?user_code="
)

// AuthChallenge is a device-authorization challenge extracted from output.
type AuthChallenge struct {
	URL  string
	Code string
}

// Classification is the result of classifying one stdout line. At most one
// of AuthNeeded, NeedsPersistence, Challenge and Success is set; Profile is
// independent and may co-occur with any of them.
type Classification struct {
	AuthNeeded       bool
	NeedsPersistence bool
	Challenge        *AuthChallenge
	Success          bool
	AuthMode         string
	Profile          string
}

// Classify inspects a single stdout line for authentication markers.
// It is a pure function; profile continuity across lines is the caller's
// concern (the stdout reader keeps the last captured profile).
func Classify(line string) Classification {
	var c Classification

	if name, ok := parseProfile(line); ok {
		c.Profile = name
	}

	switch {
	case strings.Contains(line, markerAuthNeeded):
		c.AuthNeeded = true
	case strings.Contains(line, markerNeedsPersistence):
		c.NeedsPersistence = true
	default:
		if challenge := parseAuthChallenge(line); challenge != nil {
			c.Challenge = challenge
		} else if strings.Contains(line, markerAuthSuccess) {
			c.Success = true
			c.AuthMode = parseAuthMode(line)
		}
	}

	return c
}

// StripANSI removes ANSI color escape sequences (ESC '[' ... 'm' runs) from s.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	skipping := false
	for _, r := range s {
		if skipping {
			if r == 'm' {
				skipping = false
			}
			continue
		}
		if r == '\x1b' {
			skipping = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseProfile extracts the profile name from lines like
// "Auto-selected profile: Natxo (abc-123)".
func parseProfile(line string) (string, bool) {
	clean := StripANSI(line)
	idx := strings.Index(clean, markerProfile)
	if idx < 0 {
		return "", false
	}

	after := clean[idx+len(markerProfile):]
	paren := strings.Index(after, "(")
	if paren < 0 {
		return "", false
	}

	name := strings.TrimSpace(after[:paren])
	if name == "" {
		return "", false
	}
	return name, true
}

// parseAuthChallenge looks for a device-auth URL carrying a user_code query
// parameter, falling back to the bare "Enter code:" form for which it
// synthesizes the canonical verification URL.
func parseAuthChallenge(line string) *AuthChallenge {
	clean := StripANSI(line)

	// Primary form: "Or visit: https://...?user_code=MNkHJhwD"
	if strings.Contains(clean, "user_code=") && strings.Contains(clean, "https://") {
		urlStart := strings.Index(clean, "https://")
		urlPart := clean[urlStart:]
		if end := strings.IndexFunc(urlPart, isSpace); end >= 0 {
			urlPart = urlPart[:end]
		}

		if codeStart := strings.Index(urlPart, "user_code="); codeStart >= 0 {
			code := urlPart[codeStart+len("user_code="):]
			if code != "" {
				return &AuthChallenge{URL: urlPart, Code: code}
			}
		}
	}

	// Backup form: "Enter code: AB12CD"
	if idx := strings.Index(clean, markerEnterCode); idx >= 0 {
		fields := strings.Fields(clean[idx+len(markerEnterCode):])
		if len(fields) > 0 {
			code := fields[0]
			return &AuthChallenge{URL: deviceVerifyURL + code, Code: code}
		}
	}

	return nil
}

// parseAuthMode extracts the token following "Mode:" from an auth-success
// line, defaulting to OAUTH_DEVICE.
func parseAuthMode(line string) string {
	idx := strings.Index(line, markerAuthMode)
	if idx < 0 {
		return defaultAuthMode
	}

	mode := strings.TrimSpace(line[idx+len(markerAuthMode):])
	if mode == "" {
		return defaultAuthMode
	}
	return mode
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
