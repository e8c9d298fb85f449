package ai

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CrisisReferralMessage is the fixed, non-generated reply returned whenever
// the interceptor triggers. It must reach the user verbatim.
const CrisisReferralMessage = "It sounds like you're going through something really difficult right now. " +
	"You don't have to face this alone, and support is available right now:\n\n" +
	"- Call or text 988 (Suicide & Crisis Lifeline, 24/7)\n" +
	"- Text HOME to 741741 (Crisis Text Line)\n" +
	"- Call 911 or go to your nearest emergency room if you are in immediate danger\n\n" +
	"Please reach out to one of these services or to someone you trust. This workbook " +
	"will still be here for you afterwards."

// CrisisDetector matches inbound messages against a denylist of crisis
// phrases using case-insensitive substring matching.
//
// Substring matching will miss paraphrased or misspelled crisis language.
// That false-negative risk is an accepted limitation of this design; the
// denylist is configuration so it can be extended without a deploy.
type CrisisDetector struct {
	phrases []string
}

func NewCrisisDetector(phrases []string) *CrisisDetector {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &CrisisDetector{phrases: cleaned}
}

// Check scans one inbound message. The decision is computed fresh per message
// and is never persisted.
func (d *CrisisDetector) Check(message string) CrisisDecision {
	lowered := strings.ToLower(message)
	matched := map[string]struct{}{}
	for _, p := range d.phrases {
		if strings.Contains(lowered, p) {
			matched[p] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return CrisisDecision{}
	}
	terms := make([]string, 0, len(matched))
	for t := range matched {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return CrisisDecision{Triggered: true, MatchedTerms: terms}
}

type crisisConfig struct {
	Phrases []string `yaml:"phrases"`
}

// LoadCrisisPhrases reads the denylist artifact. The list is data, not code:
// editing the YAML file is the supported way to extend coverage.
func LoadCrisisPhrases(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crisis denylist: %w", err)
	}
	var cfg crisisConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse crisis denylist: %w", err)
	}
	if len(cfg.Phrases) == 0 {
		return nil, fmt.Errorf("crisis denylist %s contains no phrases", path)
	}
	return cfg.Phrases, nil
}

// DefaultCrisisPhrases is the fallback when the denylist artifact cannot be
// loaded. An empty denylist would silently disable the safety interceptor, so
// startup degrades to this baked-in set instead.
func DefaultCrisisPhrases() []string {
	return []string{
		"kill myself",
		"end my life",
		"end it all",
		"suicide",
		"suicidal",
		"want to die",
		"better off dead",
		"hurt myself",
		"harm myself",
		"self-harm",
		"self harm",
		"no reason to live",
		"can't go on",
	}
}
