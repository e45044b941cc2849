package device

import (
	"encoding/json"
	"regexp"
	"strings"
)

// InstallerMessage is one entry of the message blob the installer page embeds.
type InstallerMessage struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// InstallerResult holds the interpreted installer response page.
type InstallerResult struct {
	Messages []InstallerMessage
}

// Newer firmware embeds the messages as an escaped JSON string inside an
// inline script: JSON.parse('{"messages":[...]}').
var blobPattern = regexp.MustCompile(`JSON\.parse\('((?:[^'\\]|\\.)*)'\)`)

// Phrases old firmware prints as plain page text.
var legacyPhrases = []struct {
	phrase  string
	msgType string
}{
	{"Identical to previous version", "success"},
	{"Install Success", "success"},
	{"Delete Succeeded", "success"},
	{"Install Failure", "error"},
}

// parseInstallerResponse extracts the device's install messages from the
// response page. It never fails: an unrecognized page yields an empty result.
func parseInstallerResponse(page []byte) InstallerResult {
	if m := blobPattern.FindSubmatch(page); m != nil {
		var payload struct {
			Messages []InstallerMessage `json:"messages"`
		}
		if err := json.Unmarshal([]byte(unescapeBlob(string(m[1]))), &payload); err == nil {
			return InstallerResult{Messages: payload.Messages}
		}
	}

	// Legacy fallback: scan for the known phrases in page order.
	text := string(page)
	var result InstallerResult
	for _, lp := range legacyPhrases {
		if strings.Contains(text, lp.phrase) {
			result.Messages = append(result.Messages, InstallerMessage{Text: lp.phrase, Type: lp.msgType})
		}
	}
	return result
}

// unescapeBlob undoes the single-quote escaping applied for the JS literal.
func unescapeBlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Succeeded reports whether any message marks the operation successful.
func (r InstallerResult) Succeeded() bool {
	for _, m := range r.Messages {
		if m.Type == "success" {
			return true
		}
	}
	return false
}

// Failed reports whether the device emitted an error message.
func (r InstallerResult) Failed() bool {
	for _, m := range r.Messages {
		if m.Type == "error" {
			return true
		}
	}
	return false
}

// FailureText returns the first error message text.
func (r InstallerResult) FailureText() string {
	for _, m := range r.Messages {
		if m.Type == "error" {
			return m.Text
		}
	}
	return "install failed"
}
