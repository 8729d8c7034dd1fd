package utils

import "strings"

// StopMarker ends a completion before the model starts a new template section
const StopMarker = "###"

const promptPreamble = "You are a reliable document parser. Extract the requested field from the document below."

// BuildPrompt composes the single-field prompt sent to the LLM.
// The document text is included as-is; context overflow is the LLM's to report.
func BuildPrompt(instruction, documentText string) string {
	var b strings.Builder
	b.WriteString(StopMarker + " Instruction:\n")
	b.WriteString(promptPreamble)
	b.WriteString("\n\n" + StopMarker + " Document:\n")
	b.WriteString(documentText)
	b.WriteString("\n\n" + StopMarker + " Task:\n")
	b.WriteString(instruction)
	b.WriteString("\n\n" + StopMarker + " Answer:")
	return b.String()
}
