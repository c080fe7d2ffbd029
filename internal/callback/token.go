package callback

import (
	"fmt"
	"regexp"
)

// tokenPattern matches the callback-data string format spec.md §6
// describes: "ag:approve:<id>" or "ag:deny:<id>" where id is exactly
// 16 lowercase hex characters.
//
// Grounded on haasonsaas-nexus's internal/policy/send.go regex-based
// command parsing idiom, adapted to this token grammar.
var tokenPattern = regexp.MustCompile(`^ag:(approve|deny):([0-9a-f]{16})$`)

// FormatApprove renders the approve token for id, for channel adapters
// to embed in buttons/callback data.
func FormatApprove(id string) string {
	return fmt.Sprintf("ag:approve:%s", id)
}

// FormatDeny renders the deny token for id.
func FormatDeny(id string) string {
	return fmt.Sprintf("ag:deny:%s", id)
}

// ParseToken parses a callback-data token into its request id and
// approval verb. ok is false if token does not match the grammar.
func ParseToken(token string) (id string, approved bool, ok bool) {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return "", false, false
	}
	return m[2], m[1] == "approve", true
}
