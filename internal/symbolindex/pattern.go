package symbolindex

import "strings"

// MatchesPattern implements spec 4.5's matchesPattern(input, pattern,
// anchorStart, anchorEnd, subsequence, ignoreCase).
func MatchesPattern(input, pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool) bool {
	if ignoreCase {
		input = strings.ToLower(input)
		pattern = strings.ToLower(pattern)
	}

	if subsequence {
		return matchesSubsequence(input, pattern, anchorStart, anchorEnd)
	}
	return matchesSubstring(input, pattern, anchorStart, anchorEnd)
}

func matchesSubstring(input, pattern string, anchorStart, anchorEnd bool) bool {
	if anchorStart && anchorEnd {
		return input == pattern
	}
	if anchorStart {
		return strings.HasPrefix(input, pattern)
	}
	if anchorEnd {
		return strings.HasSuffix(input, pattern)
	}
	return strings.Contains(input, pattern)
}

// matchesSubsequence reports whether pattern's characters appear in order
// in input. anchorStart requires the first consumed input rune (input[0])
// to match pattern's first rune; anchorEnd requires the last consumed input
// rune (input[len-1]) to match pattern's last rune.
func matchesSubsequence(input, pattern string, anchorStart, anchorEnd bool) bool {
	ir := []rune(input)
	pr := []rune(pattern)

	if len(pr) == 0 {
		if anchorStart || anchorEnd {
			return len(ir) == 0
		}
		return true
	}
	if anchorStart && (len(ir) == 0 || ir[0] != pr[0]) {
		return false
	}
	if anchorEnd && (len(ir) == 0 || ir[len(ir)-1] != pr[len(pr)-1]) {
		return false
	}

	pi := 0
	for i := 0; i < len(ir) && pi < len(pr); i++ {
		if ir[i] == pr[pi] {
			pi++
		}
	}
	return pi == len(pr)
}
