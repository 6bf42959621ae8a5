package bcd

import "strings"

const longPathPrefix = `\\?\`

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// NormalizeVhdPath maps a virtual-disk path to the form used to decide
// whether two paths name the same boot target. It strips the \\?\ prefix,
// uses \ as the only separator, folds bcdedit's bracketed volume qualifier
// ([C:]\x becomes C:\x) and lowercases. It never touches the filesystem.
//
// NormalizeVhdPath(NormalizeVhdPath(p)) == NormalizeVhdPath(p) for all p.
func NormalizeVhdPath(path string) string {
	for {
		next := normalizeOnce(path)
		if next == path {
			return next
		}
		path = next
	}
}

func normalizeOnce(path string) string {
	s := strings.TrimSpace(path)
	s = strings.ReplaceAll(s, "/", `\`)
	for strings.HasPrefix(s, longPathPrefix) {
		s = strings.TrimSpace(s[len(longPathPrefix):])
	}
	s = bracketStripper.Replace(s)
	return strings.ToLower(s)
}
