package generator

import (
	"strings"

	"careerquest-service/internal/domain"
)

// Keyword lists are checked in declaration order; the first hit wins.
var personaKeywords = []struct {
	persona  domain.Persona
	keywords []string
}{
	{domain.PersonaHospitality, []string{"hotel", "hospitality", "front office", "housekeeping", "food", "beverage", "f&b", "restaurant", "culinary", "kitchen"}},
	{domain.PersonaInterview, []string{"interview"}},
	{domain.PersonaCommunication, []string{"english", "communication", "public speaking", "announcement"}},
}

var personaFraming = map[domain.Persona]string{
	domain.PersonaAviation:      "You are a senior aviation training instructor preparing cabin crew and airport staff for airline recruitment and certification.",
	domain.PersonaHospitality:   "You are an experienced hotel and restaurant trainer preparing students for international hospitality careers.",
	domain.PersonaInterview:     "You are a recruitment specialist who coaches candidates for airline and hotel job interviews.",
	domain.PersonaCommunication: "You are an English communication coach for aviation and hospitality service professionals.",
}

// ClassifyPersona infers a persona from a domain name by keyword containment.
// Names without a known keyword fall back to aviation.
func ClassifyPersona(domainName string) domain.Persona {
	name := strings.ToLower(domainName)
	for _, entry := range personaKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.persona
			}
		}
	}
	return domain.PersonaAviation
}

// PersonaFor prefers the catalog's explicit persona over inference.
func PersonaFor(d domain.Domain) domain.Persona {
	if _, ok := personaFraming[d.Persona]; ok {
		return d.Persona
	}
	return ClassifyPersona(d.Name)
}
