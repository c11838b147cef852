package driven

// Prompt template names. The answer prompt is versioned: the name is the
// base name plus the configured version, e.g. "answer_v1".
const (
	// PromptAnswerBase is the base name of the answer prompt family.
	PromptAnswerBase = "answer"
)

// PromptStore loads prompt templates by name.
type PromptStore interface {
	// Load returns the template for the given name, falling back to an
	// embedded default when no customised template exists.
	Load(name string) (string, error)
}

// AnswerPromptName returns the versioned template name for the answer
// prompt, e.g. AnswerPromptName("v1") == "answer_v1".
func AnswerPromptName(version string) string {
	return PromptAnswerBase + "_" + version
}
