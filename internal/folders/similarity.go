package folders

import (
	"regexp"
	"strings"
)

var (
	wordPattern  = regexp.MustCompile(`[a-z0-9]+`)
	digitPattern = regexp.MustCompile(`\d+`)
)

// normalizePath lower-cases a joined folder path and drops the browser root prefix
func normalizePath(folder, root string) []string {
	norm := strings.ToLower(strings.TrimSpace(folder))
	if root != "" {
		r := strings.ToLower(root)
		norm = strings.ReplaceAll(norm, r+" > ", "")
		norm = strings.ReplaceAll(norm, r+">", "")
	}
	var parts []string
	for _, p := range strings.Split(norm, " > ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// tokenize splits a folder name into alphanumeric words plus digit-stripped variants
func tokenize(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range wordPattern.FindAllString(strings.ToLower(name), -1) {
		tokens[t] = true
		if stripped := digitPattern.ReplaceAllString(t, ""); stripped != "" {
			tokens[stripped] = true
		}
	}
	return tokens
}

// similar reports whether two folders at the same depth have matching leaf names.
// Leaves match when equal or when their token overlap divided by the smaller token
// set reaches threshold.
func similar(a, b, root string, threshold float64) bool {
	partsA := normalizePath(a, root)
	partsB := normalizePath(b, root)
	if len(partsA) == 0 || len(partsB) == 0 || len(partsA) != len(partsB) {
		return false
	}

	leafA := partsA[len(partsA)-1]
	leafB := partsB[len(partsB)-1]
	if leafA == leafB {
		return true
	}

	tokensA := tokenize(leafA)
	tokensB := tokenize(leafB)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return false
	}

	common := 0
	for t := range tokensA {
		if tokensB[t] {
			common++
		}
	}
	return float64(common)/float64(min(len(tokensA), len(tokensB))) >= threshold
}

// similarGroups greedily groups folders: each unclaimed folder claims every later
// unclaimed folder similar to it. Only groups of two or more are returned.
func similarGroups(folders []string, root string, threshold float64) [][]string {
	var groups [][]string
	claimed := make(map[string]bool)

	for i, first := range folders {
		if claimed[first] {
			continue
		}
		group := []string{first}
		for _, other := range folders[i+1:] {
			if claimed[other] {
				continue
			}
			if similar(first, other, root, threshold) {
				group = append(group, other)
				claimed[other] = true
			}
		}
		if len(group) > 1 {
			claimed[first] = true
			groups = append(groups, group)
		}
	}
	return groups
}
