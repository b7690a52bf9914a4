package generator

import "careerquest-service/internal/domain"

type setFocus struct {
	label            string
	instruction      string
	scenarioRequired bool
	// excluded holds lowercase fragments that signal content belonging to another set.
	excluded []string
}

var setFocuses = [domain.MaxSets]setFocus{
	{
		label: "Fundamentals",
		instruction: "SET 1 - FUNDAMENTALS. Ask ONLY about definitions, abbreviation expansions, terminology and identification of equipment, documents or roles. " +
			"Do NOT include scenarios, situational judgment or emergencies.",
		excluded: []string{"emergency", "evacuat", "what would you do", "what should you do", "ditching"},
	},
	{
		label: "Procedures",
		instruction: "SET 2 - STANDARD OPERATING PROCEDURES. Ask ONLY about the correct sequence of steps, checklists, standard phrases and required documentation. " +
			"Do NOT ask basic definitions or abbreviation expansions.",
		excluded: []string{"stands for", "abbreviation", "definition of", "is defined as"},
	},
	{
		label: "Situational",
		instruction: "SET 3 - SITUATIONAL AND SOFT SKILLS. Every question MUST start from a realistic workplace scenario involving customers, passengers, guests or colleagues " +
			"and test judgment, empathy and communication. Do NOT ask routine procedure or checklist questions.",
		scenarioRequired: true,
		excluded:         []string{"checklist", "stands for", "abbreviation"},
	},
	{
		label: "Emergency",
		instruction: "SET 4 - EMERGENCY AND CRITICAL INCIDENTS. Every question MUST describe an abnormal, emergency or critical incident scenario " +
			"and test the correct immediate action and priorities.",
		scenarioRequired: true,
		excluded:         []string{"stands for", "abbreviation"},
	},
	{
		label: "Mastery",
		instruction: "SET 5 - REGULATION AND MANAGEMENT. Ask ONLY about regulations, authority requirements, penalties, audits and supervisor or management-level decisions. " +
			"This is the hardest set; expect the student to weigh competing obligations.",
		excluded: []string{"stands for", "abbreviation"},
	},
}

func focusFor(set int) setFocus {
	if set < 1 || set > domain.MaxSets {
		set = 1
	}
	return setFocuses[set-1]
}

// SetLabel returns the short name of a set (e.g. "Fundamentals").
func SetLabel(set int) string {
	return focusFor(set).label
}

// ScenarioRequired reports whether questions of a set must carry scenario text.
func ScenarioRequired(set int) bool {
	return focusFor(set).scenarioRequired
}
