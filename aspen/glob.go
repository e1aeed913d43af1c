package aspen

// globMatch reports whether value matches pattern, where '*' in pattern
// matches any run of characters (including none) and '?' matches exactly
// one character, the same wildcard semantics IAM uses for Action and
// Resource matching and the StringLike/ArnLike condition operators.
func globMatch(pattern, value string) bool {
	return globMatchBytes([]byte(pattern), []byte(value))
}

func globMatchBytes(pattern, value []byte) bool {
	var pIdx, vIdx int
	var starIdx, matchIdx = -1, 0

	for vIdx < len(value) {
		switch {
		case pIdx < len(pattern) && (pattern[pIdx] == '?' || pattern[pIdx] == value[vIdx]):
			pIdx++
			vIdx++
		case pIdx < len(pattern) && pattern[pIdx] == '*':
			starIdx = pIdx
			matchIdx = vIdx
			pIdx++
		case starIdx != -1:
			pIdx = starIdx + 1
			matchIdx++
			vIdx = matchIdx
		default:
			return false
		}
	}

	for pIdx < len(pattern) && pattern[pIdx] == '*' {
		pIdx++
	}

	return pIdx == len(pattern)
}
