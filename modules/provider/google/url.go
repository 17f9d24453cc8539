package google

import "strings"

const (
	// DefaultBaseURL is the Generative Language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	filesURLPrefix = DefaultBaseURL + "/files/"
)

// modelPath returns id unchanged when it already names a resource path
// (e.g. "tunedModels/x"), otherwise "models/" + id.
func modelPath(id string) string {
	if strings.Contains(id, "/") {
		return id
	}
	return "models/" + id
}

// isSupportedFileURL reports whether u points at a file uploaded through
// the Files API, which the model can read without inlining.
func isSupportedFileURL(u string) bool {
	return strings.HasPrefix(u, filesURLPrefix)
}

func withoutTrailingSlash(u string) string {
	return strings.TrimRight(u, "/")
}
