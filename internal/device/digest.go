package device

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	oerrors "github.com/crosscast/tvlink/internal/errors"
)

// challenge is a parsed WWW-Authenticate Digest header. Device firmware
// varies: new builds send qop="auth", old builds send no qop at all, and the
// response computation differs between the two.
type challenge struct {
	realm     string
	nonce     string
	qop       string
	opaque    string
	algorithm string
}

// parseChallenge parses the WWW-Authenticate header of a 401 response.
func parseChallenge(header string) (challenge, error) {
	const scheme = "digest "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return challenge{}, oerrors.Wrap(oerrors.ErrAuth, fmt.Sprintf("unsupported auth scheme in %q", header))
	}

	ch := challenge{}
	for _, part := range splitChallenge(header[len(scheme):]) {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "realm":
			ch.realm = value
		case "nonce":
			ch.nonce = value
		case "qop":
			ch.qop = value
		case "opaque":
			ch.opaque = value
		case "algorithm":
			ch.algorithm = value
		}
	}

	if ch.realm == "" || ch.nonce == "" {
		return challenge{}, oerrors.Wrap(oerrors.ErrAuth, "digest challenge missing realm or nonce")
	}
	return ch, nil
}

// splitChallenge splits a challenge into k=v parts, honoring quoted commas.
func splitChallenge(s string) []string {
	var parts []string
	var sb strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			sb.WriteByte(c)
		case c == ',' && !inQuote:
			parts = append(parts, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	if sb.Len() > 0 {
		parts = append(parts, strings.TrimSpace(sb.String()))
	}
	return parts
}

// nonce count is fixed: every request starts a fresh digest session.
const digestNC = "00000001"

// digestResponse computes the MD5 digest response hash for the challenge.
// With qop present: MD5(HA1:nonce:nc:cnonce:qop:HA2); legacy form without
// qop: MD5(HA1:nonce:HA2).
func digestResponse(ch challenge, username, password, method, uri, cnonce string) string {
	ha1 := md5hex(username + ":" + ch.realm + ":" + password)
	ha2 := md5hex(method + ":" + uri)

	if qop := selectQOP(ch.qop); qop != "" {
		return md5hex(strings.Join([]string{ha1, ch.nonce, digestNC, cnonce, qop, ha2}, ":"))
	}
	return md5hex(ha1 + ":" + ch.nonce + ":" + ha2)
}

// authorizationHeader renders the Authorization value for the challenge.
func authorizationHeader(ch challenge, username, password, method, uri, cnonce string) string {
	response := digestResponse(ch, username, password, method, uri, cnonce)

	var sb strings.Builder
	fmt.Fprintf(&sb, `Digest username=%q, realm=%q, nonce=%q, uri=%q, response=%q, algorithm=MD5`,
		username, ch.realm, ch.nonce, uri, response)
	if qop := selectQOP(ch.qop); qop != "" {
		fmt.Fprintf(&sb, `, qop=%s, nc=%s, cnonce=%q`, qop, digestNC, cnonce)
	}
	if ch.opaque != "" {
		fmt.Fprintf(&sb, `, opaque=%q`, ch.opaque)
	}
	return sb.String()
}

// selectQOP picks "auth" when the server offers it. auth-int is not
// implemented.
func selectQOP(qop string) string {
	for _, q := range strings.Split(qop, ",") {
		if strings.TrimSpace(q) == "auth" {
			return "auth"
		}
	}
	return ""
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
