package intent

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed docs.yaml
var docsYAML []byte

// DocSection is one topic of in-app documentation.
type DocSection struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Body     string   `yaml:"body"`
}

// Docs routes a user message to the documentation sections worth quoting in the prompt.
type Docs struct {
	Sections                   []DocSection `yaml:"sections"`
	OutOfScopeIndicators       []string     `yaml:"out_of_scope_indicators"`
	GeneralKnowledgeIndicators []string     `yaml:"general_knowledge_indicators"`
	AppKeywords                []string     `yaml:"app_keywords"`
	GeneralQuestionIndicators  []string     `yaml:"general_question_indicators"`
	CapabilityTerms            []string     `yaml:"capability_terms"`
	LimitationTerms            []string     `yaml:"limitation_terms"`
}

// DefaultDocs returns the embedded documentation. It panics only if the embedded file is malformed.
func DefaultDocs() *Docs {
	var d Docs
	if err := yaml.Unmarshal(docsYAML, &d); err != nil {
		panic(fmt.Sprintf("intent: embedded docs: %v", err))
	}
	return &d
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// IsGeneralKnowledge reports a general-knowledge question that does not mention the app or tasks.
func (d *Docs) IsGeneralKnowledge(message string) bool {
	m := strings.ToLower(message)
	return containsAny(m, d.GeneralKnowledgeIndicators) && !containsAny(m, d.AppKeywords)
}

// Relevant returns the names of the sections relevant to message, in routing order.
// Out-of-scope requests always pull in limitations and capabilities; general-knowledge
// questions get nothing; keyword routing only applies to questions about the app.
func (d *Docs) Relevant(message string) []string {
	m := strings.ToLower(message)
	var out []string
	add := func(name string) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	if containsAny(m, d.OutOfScopeIndicators) {
		add("limitations")
		add("capabilities")
	}
	if d.IsGeneralKnowledge(m) {
		return nil
	}
	if !containsAny(m, d.GeneralQuestionIndicators) {
		return out
	}
	for _, s := range d.Sections {
		if containsAny(m, s.Keywords) {
			add(s.Name)
		}
	}
	if strings.Contains(m, "what") && containsAny(m, d.CapabilityTerms) {
		add("capabilities")
	}
	if containsAny(m, d.LimitationTerms) {
		add("limitations")
	}
	return out
}

// Render joins the bodies of the named sections. Unknown names are skipped.
func (d *Docs) Render(names []string) string {
	var parts []string
	for _, n := range names {
		for _, s := range d.Sections {
			if s.Name == n {
				parts = append(parts, strings.TrimSpace(s.Body))
				break
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
