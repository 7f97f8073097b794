package driven

// Prompt names recognised by the prompt store.
const (
	// PromptSegmentation is the MERGE/SPLIT prompt used by the agentic
	// chunking strategy. The template takes two %s placeholders: the
	// current chunk tail and the next passage.
	PromptSegmentation = "segmentation"
)

// PromptStore loads user-customisable LLM prompt templates by name.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
