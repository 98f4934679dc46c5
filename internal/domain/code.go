package domain

import (
	"fmt"
	"regexp"
	"time"
)

// AgentCodePrefix starts every agent code.
const AgentCodePrefix = "DFA"

var agentCodePattern = regexp.MustCompile(`^` + AgentCodePrefix + `\d{9}$`)

// FormatAgentCode builds an agent code from the last six digits of the
// millisecond clock and a draw in [0, 999]. The suffix wraps roughly every
// 16.7 minutes, so codes are not unique on their own; the store's unique
// constraint catches collisions.
func FormatAgentCode(now time.Time, draw int) string {
	return fmt.Sprintf("%s%06d%03d", AgentCodePrefix, now.UnixMilli()%1_000_000, draw%1000)
}

// IsAgentCode reports whether s has the shape FormatAgentCode produces.
func IsAgentCode(s string) bool {
	return agentCodePattern.MatchString(s)
}
