package summaries

import "fmt"

// Renderer turns a composed section into its stored body. Implementations
// own the output format; the engine stays format-agnostic.
type Renderer interface {
	Render(section TemplateSection, body string) (string, error)
}

// MarkdownRenderer is the default Renderer. It emits a level-2 heading
// followed by the composed body.
type MarkdownRenderer struct{}

// Render implements Renderer.
func (MarkdownRenderer) Render(section TemplateSection, body string) (string, error) {
	return fmt.Sprintf("## %s\n\n%s\n", section.Title, body), nil
}
