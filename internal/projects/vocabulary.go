package projects

import "strings"

// Vocabularies matched against cluster keywords
var (
	workVocabulary = expandAll([]string{
		"docker", "kubernetes", "k8s", "deployment", "infrastructure",
		"backend", "api", "database", "postgresql", "redis", "fastapi",
		"production", "monitoring", "logging", "ci-cd", "devops",
	})
	learningVocabulary = expandAll([]string{
		"tutorial", "course", "learning", "guide", "documentation",
		"getting-started", "introduction", "beginner", "example", "demo",
	})
	frontendVocabulary = expandAll([]string{
		"react", "vue", "angular", "frontend", "ui", "ux", "design",
		"css", "html", "javascript", "typescript", "component",
	})
	cloudVocabulary = expandAll([]string{
		"aws", "azure", "gcp", "cloud", "lambda", "ec2", "s3",
		"cloudformation", "terraform", "ansible",
	})
)

// expand returns a keyword, its hyphen-free form and each hyphen-delimited token,
// so "docker-compose" matches "docker" and "ci-cd" matches "cicd".
func expand(keyword string) []string {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	out := []string{kw, strings.ReplaceAll(kw, "-", "")}
	for _, part := range strings.Split(kw, "-") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandAll(keywords []string) map[string]bool {
	set := make(map[string]bool)
	for _, kw := range keywords {
		for _, v := range expand(kw) {
			set[v] = true
		}
	}
	return set
}

// overlap counts distinct expanded keywords present in vocabulary
func overlap(keywords []string, vocabulary map[string]bool) int {
	n := 0
	for v := range expandAll(keywords) {
		if vocabulary[v] {
			n++
		}
	}
	return n
}
