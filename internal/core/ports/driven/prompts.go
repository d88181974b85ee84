package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptGroundedAnswer is the RAG answer template. It expects three %s
	// placeholders: conversation history, retrieved context, question.
	PromptGroundedAnswer = "grounded_answer"

	// PromptNoSources is the reply used when retrieval finds nothing.
	// It has no placeholders.
	PromptNoSources = "no_sources"
)
