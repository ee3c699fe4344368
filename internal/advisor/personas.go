// Package advisor talks to the chat completion provider on behalf of the
// three writing advisors and falls back to canned replies when the provider
// cannot answer.
package advisor

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/chrisminnick/starboard2/internal/models"
)

//go:embed personas.yaml
var personasYAML []byte

// Persona is one advisor's voice and prompts.
type Persona struct {
	Role        models.Role
	Name        string
	Personality string

	systemPrompt string
	feedback     *template.Template
	comment      *template.Template
	fallbacks    []*template.Template
}

type personaSpec struct {
	Name           string   `yaml:"name"`
	Personality    string   `yaml:"personality"`
	SystemPrompt   string   `yaml:"system_prompt"`
	FeedbackPrompt string   `yaml:"feedback_prompt"`
	CommentPrompt  string   `yaml:"comment_prompt"`
	Fallbacks      []string `yaml:"fallbacks"`
}

// promptData is what persona templates are rendered with.
type promptData struct {
	Project      *models.Project
	SelectedText string
}

// Personas holds every advisor by role.
type Personas map[models.Role]*Persona

// LoadPersonas parses the embedded persona file.
func LoadPersonas() (Personas, error) {
	return parsePersonas(personasYAML)
}

func parsePersonas(data []byte) (Personas, error) {
	const op = "advisor.parsePersonas"
	var specs map[string]personaSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	personas := make(Personas, len(specs))
	for name, spec := range specs {
		role := models.Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("%s: unknown role %q", op, name)
		}
		if len(spec.Fallbacks) == 0 {
			return nil, fmt.Errorf("%s: role %q has no fallbacks", op, name)
		}
		p := &Persona{
			Role:         role,
			Name:         spec.Name,
			Personality:  spec.Personality,
			systemPrompt: spec.SystemPrompt,
		}
		var err error
		if p.feedback, err = template.New(name + ".feedback").Parse(spec.FeedbackPrompt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p.comment, err = template.New(name + ".comment").Parse(spec.CommentPrompt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for i, text := range spec.Fallbacks {
			t, err := template.New(fmt.Sprintf("%s.fallback.%d", name, i)).Parse(text)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			p.fallbacks = append(p.fallbacks, t)
		}
		personas[role] = p
	}

	for _, role := range models.Roles {
		if _, ok := personas[role]; !ok {
			return nil, fmt.Errorf("%s: missing role %q", op, role)
		}
	}
	return personas, nil
}

// SystemPrompt returns the system message for this advisor.
func (p *Persona) SystemPrompt() string {
	return p.systemPrompt
}

// FeedbackPrompt renders the structured feedback request for project.
func (p *Persona) FeedbackPrompt(project *models.Project) (string, error) {
	return render(p.feedback, promptData{Project: project})
}

// CommentPrompt renders the inline comment request for selectedText.
func (p *Persona) CommentPrompt(project *models.Project, selectedText string) (string, error) {
	return render(p.comment, promptData{Project: project, SelectedText: selectedText})
}

func render(t *template.Template, data promptData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("advisor.render %s: %w", t.Name(), err)
	}
	return sb.String(), nil
}
