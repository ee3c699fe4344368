package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
)

// Reply kinds and sources reported to the Recorder.
const (
	KindChat     = "chat"
	KindFeedback = "feedback"
	KindComment  = "comment"

	SourceProvider = "provider"
	SourceFallback = "fallback"
)

// ErrUnknownRole is returned for a role outside the three personas.
var ErrUnknownRole = errors.New("unknown advisor role")

// Recorder counts advisor replies.
type Recorder interface {
	AdvisorReply(role models.Role, kind, source string)
}

// Advisor answers on behalf of the personas.
type Advisor struct {
	log       *slog.Logger
	personas  Personas
	completer Completer
	recorder  Recorder
}

// New loads the embedded personas and returns an Advisor that asks
// completer first and falls back to canned replies.
func New(log *slog.Logger, completer Completer, recorder Recorder) (*Advisor, error) {
	personas, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	return &Advisor{
		log:       log,
		personas:  personas,
		completer: completer,
		recorder:  recorder,
	}, nil
}

// Persona returns the persona for role.
func (a *Advisor) Persona(role models.Role) (*Persona, error) {
	p, ok := a.personas[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return p, nil
}

// Chat answers a free-form message.
func (a *Advisor) Chat(ctx context.Context, role models.Role, message string, project *models.Project) (string, error) {
	persona, err := a.Persona(role)
	if err != nil {
		return "", err
	}
	return a.ask(ctx, persona, KindChat, message, project), nil
}

// Feedback asks for structured feedback on the whole project.
func (a *Advisor) Feedback(ctx context.Context, role models.Role, project *models.Project) (models.Feedback, error) {
	persona, err := a.Persona(role)
	if err != nil {
		return models.Feedback{}, err
	}
	prompt, err := persona.FeedbackPrompt(project)
	if err != nil {
		return models.Feedback{}, err
	}
	return ParseFeedback(a.ask(ctx, persona, KindFeedback, prompt+feedbackFormat, project)), nil
}

// Comment asks for a comment on a selected passage.
func (a *Advisor) Comment(ctx context.Context, role models.Role, selectedText string, project *models.Project) (string, error) {
	persona, err := a.Persona(role)
	if err != nil {
		return "", err
	}
	prompt, err := persona.CommentPrompt(project, selectedText)
	if err != nil {
		return "", err
	}
	return a.ask(ctx, persona, KindComment, prompt, project), nil
}

// ask never fails: provider errors are logged and answered with a fallback.
func (a *Advisor) ask(ctx context.Context, persona *Persona, kind, prompt string, project *models.Project) string {
	reply, err := a.completer.Complete(ctx, persona.SystemPrompt(), UserMessage(prompt, project))
	if err == nil {
		a.record(persona.Role, kind, SourceProvider)
		return reply
	}

	a.log.Warn("ai provider failed, using fallback reply",
		slog.String("role", string(persona.Role)),
		slog.String("kind", kind),
		sl.Err(err),
	)
	a.record(persona.Role, kind, SourceFallback)
	return persona.Fallback(prompt, project)
}

func (a *Advisor) record(role models.Role, kind, source string) {
	if a.recorder != nil {
		a.recorder.AdvisorReply(role, kind, source)
	}
}
