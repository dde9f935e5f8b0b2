package challenge

import "strings"

// normalizeStatusLabel canonicalizes status labels from tools and scripts.
func normalizeStatusLabel(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	upper := strings.ToUpper(strings.ReplaceAll(trimmed, "-", "_"))
	switch upper {
	case "RECRUITING", "STATUS_RECRUITING":
		return statusRecruiting, true
	case "RECRUIT_FAILED", "RECRUITFAILED", "STATUS_RECRUIT_FAILED":
		return statusRecruitFailed, true
	case "EXECUTING", "STATUS_EXECUTING":
		return statusExecuting, true
	case "COMPLETED", "STATUS_COMPLETED":
		return statusCompleted, true
	default:
		return "", false
	}
}
