// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "BookmarkAnalysis")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
	Guidelines  []string      // Extra instructions appended after the schema
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// FieldNames returns the JSON names of all fields in declaration order.
func (s ExtractionSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	for _, g := range schema.Guidelines {
		sb.WriteString("- ")
		sb.WriteString(g)
		sb.WriteString("\n")
	}
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// BookmarkAnalysisSchema returns the extraction schema for a single bookmark.
// The twelve fields match types.Enrichment.
func BookmarkAnalysisSchema(description string) ExtractionSchema {
	return ExtractionSchema{
		Name:        "BookmarkAnalysis",
		Description: description,
		Fields: []SchemaField{
			{
				Name:        "tags",
				Type:        "[\"string\"]",
				Description: "5-10 specific tags, lowercase and hyphenated (e.g. docker-compose, python-testing, beginner-friendly)",
				Required:    true,
			},
			{
				Name:        "summary",
				Type:        "\"string\"",
				Description: "3-4 sentences: what the resource is, what it solves, who it is for",
				Required:    true,
			},
			{
				Name:        "content_type",
				Type:        "\"string\"",
				Description: "one of: tutorial, documentation, tool, article, reference, video, course, blog-post, repository, cheatsheet, example-code, other",
				Required:    true,
			},
			{
				Name:        "primary_technology",
				Type:        "\"string\"",
				Description: "main technology or platform (e.g. Docker, Python, AWS, React)",
				Required:    true,
			},
			{
				Name:        "skill_level",
				Type:        "\"string\"",
				Description: "one of: beginner, intermediate, advanced, expert, mixed",
				Required:    true,
			},
			{
				Name:        "use_cases",
				Type:        "[\"string\"]",
				Description: "2-4 concrete use cases",
				Required:    true,
			},
			{
				Name:        "key_topics",
				Type:        "[\"string\"]",
				Description: "3-5 main topics covered",
				Required:    true,
			},
			{
				Name:        "value_proposition",
				Type:        "\"string\"",
				Description: "one sentence on why the bookmark is worth keeping",
				Required:    true,
			},
			{
				Name:        "folder_recommendation",
				Type:        "\"string\"",
				Description: "folder path as \"Category > Subcategory\" (e.g. Development > Docker, Learning > Python > Testing)",
				Required:    true,
			},
			{
				Name:        "priority",
				Type:        "\"string\"",
				Description: "one of: high (essential reference), medium (useful occasionally), low (rarely needed)",
				Required:    true,
			},
			{
				Name:        "related_keywords",
				Type:        "[\"string\"]",
				Description: "3-5 search keywords beyond the tags",
				Required:    true,
			},
			{
				Name:        "actionability",
				Type:        "\"string\"",
				Description: "what the reader can do with it (e.g. follow tutorial, reference when debugging)",
				Required:    true,
			},
		},
		Guidelines: []string{
			"Be specific and technical; focus on practical value.",
			"The user saved this bookmark for a reason; infer it from the title, URL and folder.",
			"Folder recommendations should form a logical, searchable hierarchy.",
		},
	}
}
