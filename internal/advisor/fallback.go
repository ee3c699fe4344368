package advisor

import (
	"hash/fnv"

	"github.com/chrisminnick/starboard2/internal/models"
)

// Fallback returns one of the persona's canned replies. The choice depends
// only on prompt, so the same request always gets the same paragraph.
func (p *Persona) Fallback(prompt string, project *models.Project) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	t := p.fallbacks[int(h.Sum32()%uint32(len(p.fallbacks)))]

	reply, err := render(t, promptData{Project: project})
	if err != nil {
		return p.Personality
	}
	return reply
}
