package urlutil

import "strings"

// ignoredExtensions are file extensions the loader never fetches: binary
// and archive formats that cannot contain HTML links. Matched
// case-insensitively at the end of the path.
var ignoredExtensions = []string{
	".dmg", ".gif", ".jpg", ".jpeg", ".pdf", ".png", ".json", ".mov",
	".mp3", ".m4a", ".tar", ".tgz", ".xls", ".xlsx", ".zip", ".rar",
}

// IsIgnoredExtension reports whether path ends in one of the extensions the
// loader skips without fetching. Callers pass the path with any query
// string already removed, matching spec.md §4.4's "path end or immediately
// before ?" rule.
func IsIgnoredExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range ignoredExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
