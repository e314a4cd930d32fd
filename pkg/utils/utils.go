package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CapitalizeWords capitalizes the first letter of each word in a string.
func CapitalizeWords(s string) string {
	// Using golang.org/x/text/cases for robust capitalization, as strings.Title is deprecated.
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// VerbDisplayName turns a wire verb like "APPEND_TO_FILE" into a readable
// label like "Append To File" for logs and events.
func VerbDisplayName(verb string) string {
	return CapitalizeWords(strings.ReplaceAll(strings.ToLower(verb), "_", " "))
}

// EstimateTokens gives a rough token count for prompt budgeting. A common
// heuristic is 4 characters per token for English text.
func EstimateTokens(text string) int {
	return len(text) / 4
}
