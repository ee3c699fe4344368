package advisor

import (
	"fmt"

	"github.com/chrisminnick/starboard2/internal/models"
)

// feedbackFormat is appended to feedback prompts so the reply can be parsed
// into categories.
const feedbackFormat = `

Respond with a single JSON object and nothing else, using this shape:
{"overall": "<summary paragraph>", "strengths": ["..."], "improvements": ["..."], "suggestions": ["..."], "rating": <integer 1-5>}`

// ProjectContext describes the project to the model.
func ProjectContext(p *models.Project) string {
	audience := p.TargetAudience
	if audience == "" {
		audience = "General audience"
	}
	content := p.Content
	if content == "" {
		content = "No content yet"
	}
	return fmt.Sprintf("Project Title: %s\nTemplate: %s\nTarget Audience: %s\nCurrent Word Count: %d\nContent: %s",
		p.Title, p.Template, audience, p.CurrentWordCount, content)
}

// UserMessage joins the request prompt with the project context.
func UserMessage(prompt string, p *models.Project) string {
	return prompt + "\n\nProject Information:\n" + ProjectContext(p)
}
