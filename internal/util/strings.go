package util

import "strings"

// FirstField returns the first whitespace-separated field of s, or "" when
// s is blank. Labels like ".xyz (XMOL)" reduce to ".xyz".
func FirstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Stem returns the base name of path without its last suffix
// ("dir/ethanol.xyz" -> "ethanol").
func Stem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
