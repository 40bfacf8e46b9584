package coldstart

import (
	"sort"
	"strings"

	"adaptive-quiz-service/internal/domain"
)

// GeneralDomain catches topics outside the taxonomy.
const GeneralDomain = "general"

// knowledgeDomains is the fixed domain taxonomy used for topic mapping,
// relevance matching and similarity vectors.
var knowledgeDomains = map[string][]string{
	"mathematics": {"algebra", "calculus", "statistics", "geometry"},
	"science":     {"physics", "chemistry", "biology", "astronomy"},
	"humanities":  {"history", "literature", "philosophy", "arts"},
	"languages":   {"english", "spanish", "french", "german"},
	"technology":  {"programming", "data_science", "web_development", "cybersecurity"},
}

// DomainList returns the taxonomy domains in a fixed, sorted order so
// feature vectors built from it are consistently aligned across users.
func DomainList() []string {
	domains := make([]string, 0, len(knowledgeDomains))
	for d := range knowledgeDomains {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// Subtopics returns the named subtopics of a domain.
func Subtopics(dom string) []string {
	return knowledgeDomains[dom]
}

// MapTopicToDomain resolves a topic string to its knowledge domain, trying
// exact matches first and substring matches second. Unknown topics map to
// the general domain.
func MapTopicToDomain(topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return GeneralDomain
	}
	for _, dom := range DomainList() {
		if topic == dom {
			return dom
		}
		for _, sub := range knowledgeDomains[dom] {
			if topic == sub {
				return dom
			}
		}
	}
	for _, dom := range DomainList() {
		if strings.Contains(topic, dom) {
			return dom
		}
		for _, sub := range knowledgeDomains[dom] {
			if strings.Contains(topic, sub) {
				return dom
			}
		}
	}
	return GeneralDomain
}

// educationDifficulty maps declared education levels to a starting level.
var educationDifficulty = map[string]domain.Difficulty{
	"elementary":    domain.DifficultyBeginner,
	"middle_school": domain.DifficultyBeginner,
	"high_school":   domain.DifficultyIntermediate,
	"undergraduate": domain.DifficultyIntermediate,
	"graduate":      domain.DifficultyAdvanced,
	"phd":           domain.DifficultyAdvanced,
}

// BaseDifficultyForEducation defaults to intermediate for unknown levels.
func BaseDifficultyForEducation(level string) domain.Difficulty {
	if d, ok := educationDifficulty[strings.ToLower(strings.TrimSpace(level))]; ok {
		return d
	}
	return domain.DifficultyIntermediate
}
