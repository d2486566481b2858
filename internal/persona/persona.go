// Package persona maps behavioral personas to the steering instructions
// sent with a generation call.
package persona

import "strings"

// Persona is a named behavioral steering profile.
type Persona string

const (
	Default   Persona = "default"
	Creative  Persona = "creative"
	Technical Persona = "technical"
	ELI5      Persona = "eli5"
	Critic    Persona = "critic"
)

// All lists the personas in display order.
var All = []Persona{Default, Creative, Technical, ELI5, Critic}

var displayNames = map[Persona]string{
	Default:   "Default (Helpful Assistant)",
	Creative:  "Creative Writing (Expressive)",
	Technical: "Senior Engineer (Concise/Technical)",
	ELI5:      "Simple (Explain Like I'm 5)",
	Critic:    "Critical Analysis (Skeptic)",
}

var shortNames = map[Persona]string{
	Default:   "Default",
	Creative:  "Creative",
	Technical: "Technical",
	ELI5:      "ELI5",
	Critic:    "Critic",
}

var instructions = map[Persona]string{
	Creative:  "You are a creative writer. Use metaphors, rich vocabulary and an expressive tone. Prioritize engagement and storytelling over strict brevity.",
	Technical: "You are a senior principal engineer. Be extremely concise, technical and precise. Use bullet points where possible. Avoid filler.",
	ELI5:      "Explain complex concepts simply, as if to a bright five-year-old. Use analogies and plain language.",
	Critic:    "You are a critical analyst. Scrutinize the prompt, point out potential nuances or flaws, and offer a balanced but skeptical perspective.",
}

const defaultInstruction = "You are a helpful and polite AI assistant."

// Instruction returns the steering instruction for p. Unknown personas
// get the default instruction.
func Instruction(p Persona) string {
	if s, ok := instructions[p]; ok {
		return s
	}
	return defaultInstruction
}

// Normalize maps unknown values to Default.
func (p Persona) Normalize() Persona {
	if _, ok := displayNames[p]; ok {
		return p
	}
	return Default
}

// DisplayName is the human-readable label, e.g. "Creative Writing (Expressive)".
func (p Persona) DisplayName() string {
	return displayNames[p.Normalize()]
}

// ShortName is the first word of the display name.
func (p Persona) ShortName() string {
	return shortNames[p.Normalize()]
}

func (p Persona) String() string {
	return string(p)
}

// Parse accepts a code, short name or display name, case-insensitively.
// Anything unrecognized resolves to Default.
func Parse(s string) Persona {
	s = strings.TrimSpace(s)
	for _, p := range All {
		if strings.EqualFold(s, string(p)) ||
			strings.EqualFold(s, shortNames[p]) ||
			strings.EqualFold(s, displayNames[p]) {
			return p
		}
	}
	return Default
}
