package source

import "strings"

// Matches reports whether the definition claims the file url.
// Both tests are plain substring tests against the whole url, so a folder
// path also matches inside a longer path segment.
func (d Definition) Matches(fileURL string) bool {
	return strings.Contains(fileURL, d.Location()) && strings.Contains(fileURL, d.Extension())
}

// Identify returns every definition that claims the file url, in configuration order.
// The whole pass fails if any definition is malformed.
func Identify(fileURL string, defs []Definition) ([]Definition, error) {

	for i, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, &ConfigurationError{SourceID: d.ID, Index: i, Reason: err.Error()}
		}
	}

	matched := make([]Definition, 0)
	for _, d := range defs {
		if d.Matches(fileURL) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// IDs returns the ids of the definitions
func IDs(defs []Definition) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}
