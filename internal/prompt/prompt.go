// Package prompt builds the instruction block sent to the AI provider.
package prompt

import "strings"

// Defaults applied when the client omits lesson or language.
const (
	DefaultLessonTitle = "MOOC Lesson"
	DefaultLanguage    = "en"
)

// Fixed template sections.
const (
	persona = "You are the MOOC Lesson AI Assistant integrated into an educational platform."

	constraints = `--- Role ---
You help Filipino MOOC students by:
- Answering simply and accurately
- Giving local Ilonggo examples
- Providing Filipino/Hiligaynon translations when asked
- NEVER including sensitive data`
)

// Defaults fills in the lesson title and language when they are blank.
func Defaults(lessonTitle, language string) (string, string) {
	if strings.TrimSpace(lessonTitle) == "" {
		lessonTitle = DefaultLessonTitle
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return lessonTitle, language
}

// Assemble embeds the four inputs verbatim into the assistant template.
func Assemble(lessonTitle, contextSummary, userMessage, language string) string {
	var b strings.Builder
	b.Grow(len(persona) + len(constraints) + len(lessonTitle) + len(contextSummary) + len(userMessage) + 128)

	b.WriteString("\n")
	b.WriteString(persona)
	b.WriteString("\nLesson: ")
	b.WriteString(lessonTitle)
	b.WriteString("\n\n--- Student Conversation Summary ---\n")
	b.WriteString(contextSummary)
	b.WriteString("\n\n")
	b.WriteString(constraints)
	b.WriteString("\n\nUser says:\n")
	b.WriteString(userMessage)
	b.WriteString("\n\nPreferred language: ")
	b.WriteString(language)
	b.WriteString("\n")
	return b.String()
}
