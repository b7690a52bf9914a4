package generator

import (
	"fmt"
	"strings"

	"careerquest-service/internal/domain"
)

var difficultyFraming = map[domain.Difficulty]string{
	domain.DifficultyBasic:        "DIFFICULTY: BASIC. Test recall of facts, terms and standard values. Exactly one option is clearly correct for a trained student.",
	domain.DifficultyIntermediate: "DIFFICULTY: INTERMEDIATE. Test applying procedures and knowledge to concrete work situations. Distractors reflect common trainee mistakes.",
	domain.DifficultyExpert:       "DIFFICULTY: EXPERT. Test expert judgment where several options sound reasonable and only one reflects best industry practice and regulation.",
}

var languageNames = map[string]string{
	"en": "English",
	"id": "Indonesian (Bahasa Indonesia)",
	"ms": "Malay",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

func buildPrompt(req Request, persona domain.Persona) string {
	focus := focusFor(req.Set)

	var b strings.Builder
	b.WriteString(personaFraming[persona])
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Create %d unique multiple-choice questions for vocational students of the department %q.\n", req.Count, req.Domain.Name)
	if req.Domain.Description != "" {
		fmt.Fprintf(&b, "Department scope: %s\n", req.Domain.Description)
	}
	b.WriteString("\n")
	b.WriteString(focus.instruction)
	b.WriteString("\nQuestions must stay strictly inside this set so that none of them repeats content from the other four sets.\n\n")
	b.WriteString(difficultyFraming[req.Difficulty])
	b.WriteString("\n\n")

	if req.Language != domain.DefaultLanguage {
		fmt.Fprintf(&b, "LANGUAGE: Write every field in %s. Keep industry technical terms, job titles, equipment names and abbreviations in their original English form "+
			"(for example: boarding pass, galley, check-in, PA, SOP) and translate only the surrounding sentences. Never translate technical terms literally.\n\n", languageName(req.Language))
	}

	b.WriteString("FORMAT RULES:\n")
	b.WriteString("- Each question has exactly 4 options; correctIndex is the 0-based index of the single correct option.\n")
	b.WriteString("- Vary the position of the correct option across questions.\n")
	b.WriteString("- explanation states why the correct option is right in one or two sentences.\n")
	b.WriteString("- motivationalMessage is a short encouraging sentence for the student.\n")
	if focus.scenarioRequired {
		b.WriteString("- scenario is REQUIRED: describe the situation in two or three sentences before the question.\n")
	} else {
		b.WriteString("- scenario is optional; leave it empty for direct knowledge questions.\n")
	}
	return b.String()
}
