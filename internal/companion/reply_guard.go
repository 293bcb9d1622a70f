package companion

import (
	"regexp"
	"strings"
)

// ReplyGuardResult is the outcome of scanning a provider reply.
type ReplyGuardResult struct {
	// Blocked means the reply must not reach the user.
	Blocked bool
	// Reasons lists the detection signals that fired.
	Reasons []string
	// Reply is the trimmed reply, or "" when blocked.
	Reply string
}

type replyPattern struct {
	re     *regexp.Regexp
	reason string
}

var replyPatterns = []replyPattern{
	// Prompt and runtime-signal leaks
	{regexp.MustCompile(`(?i)my (system\s+)?prompt\s+(is|says|tells|instructs)`), "leak:system_prompt_disclosure"},
	{regexp.MustCompile(`(?i)my instructions?\s+(are|say|tell|include|require)`), "leak:instructions_disclosure"},
	{regexp.MustCompile(`(?i)(here are|these are|the following are)\s+(my )?(system )?(instructions|rules|guidelines)`), "leak:rules_listing"},
	{regexp.MustCompile(`(?i)runtime signals|do not reveal|\brisk(Level|Score|Type)\s*[=:]|\bmoodLevel\s*[=:]`), "leak:runtime_signals"},

	// Credentials and infrastructure
	{regexp.MustCompile(`(?i)(api[_\s]?key|secret[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+`), "leak:credential"},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}`), "leak:provider_key"},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "leak:aws_key"},
	{regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss)://\S+`), "leak:database_url"},

	// Prescription and dosing language
	{regexp.MustCompile(`(?i)\b(take|taking|increase|decrease|double|try)\b[^.!?\n]{0,40}\b\d+(\.\d+)?\s?(mg|milligrams?|mcg|ml)\b`), "unsafe:dosing"},
	{regexp.MustCompile(`(?i)\bi (would )?(prescribe|recommend (you )?(start|stop) taking)\b`), "unsafe:prescribing"},
	{regexp.MustCompile(`(?i)\byou (have|are suffering from) (clinical depression|bipolar|ptsd|an? (anxiety|personality) disorder)\b`), "unsafe:diagnosis"},
}

// GuardReply checks a provider reply before it is returned. Empty replies are
// blocked so the caller falls back to a templated response.
func GuardReply(reply string) ReplyGuardResult {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return ReplyGuardResult{Blocked: true, Reasons: []string{"empty_reply"}}
	}

	var reasons []string
	for _, p := range replyPatterns {
		if p.re.MatchString(trimmed) {
			reasons = append(reasons, p.reason)
		}
	}
	if len(reasons) > 0 {
		return ReplyGuardResult{Blocked: true, Reasons: reasons}
	}
	return ReplyGuardResult{Reply: trimmed}
}
