// internal/workers/prompts/prompt-store/substitute.go
package promptstore

import "strings"

// Substitute replaces {key} with value for each var in order. Only the
// first occurrence of each placeholder is replaced; later occurrences stay
// literal, matching how templates have always been filled.
func Substitute(template string, vars ...Var) string {
	out := template
	for _, v := range vars {
		out = strings.Replace(out, "{"+v.Key+"}", v.Value, 1)
	}
	return out
}
