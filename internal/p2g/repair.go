package p2g

import (
	"regexp"
	"strings"
)

// Rule is one orthographic repair step. Apply receives the original English
// word alongside the text produced by the previous step; most rules ignore
// the word.
type Rule struct {
	Name  string
	Apply func(word, text string) string
}

// Cascade is an ordered list of repair rules applied in a single forward
// pass. Rules never re-trigger earlier rules.
type Cascade []Rule

// Apply runs every rule in order and returns the final text.
func (c Cascade) Apply(word, text string) string {
	for _, r := range c {
		text = r.Apply(word, text)
	}
	return text
}

// Names returns the rule names in cascade order.
func (c Cascade) Names() []string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name
	}
	return names
}

// replacement is a literal substring rewrite.
type replacement struct{ from, to string }

// literalRule builds a rule that applies each replacement, in order, to every
// occurrence in the text.
func literalRule(name string, pairs []replacement) Rule {
	return Rule{
		Name: name,
		Apply: func(_, text string) string {
			for _, p := range pairs {
				text = strings.ReplaceAll(text, p.from, p.to)
			}
			return text
		},
	}
}

var skeletonPairs = []replacement{
	{"ङग", "ंग"},
	{"नद", "ंद"},
	{"शत", "ष्ट"},
	{"झश", "जश"},
}

var structurePairs = []replacement{
	// nasal assimilation
	{"ङग", "ंग"},
	{"नद", "ंद"},
	{"नद्र", "ंद्र"},
	// retroflex sibilant conjuncts
	{"षटर", "ष्ट्र"},
	{"षट्र", "ष्ट्र"},
	{"ष्टर", "ष्ट्र"},
	// vishnu-type clusters
	{"सष्ण", "ष्ण"},
	{"सनव", "ष्णव"},
	{"ङह", "ंघ"},
}

var clusterPairs = []replacement{
	{"पर", "प्र"},
	{"तर", "त्र"},
	{"गर", "ग्र"},
	{"सव", "स्व"},
	{"शन", "श्न"},
	{"कष", "क्ष"},
}

// placeSuffixes pairs an English place-name ending with the Devanagari form
// that must close the rendering.
var placeSuffixes = []replacement{
	{"pur", "पुर"},
	{"gram", "ग्राम"},
}

// nuktaBases are the consonants that receive a nukta for loanword sounds.
var nuktaBases = map[rune]bool{
	'फ': true,
	'ज': true,
	'ड': true,
	'ढ': true,
}

var (
	schwaBeforeMatra = regexp.MustCompile(`([क-ह])अ([ािीुूेो])`)
	nasalBeforeStop  = []*regexp.Regexp{
		regexp.MustCompile(`न([क-घच-झट-ढत-धप-भ])`),
		regexp.MustCompile(`म([क-घच-झट-ढत-धप-भ])`),
	}
	viramaAtEnd        = regexp.MustCompile(`([क-ह])्$`)
	viramaBeforeSonor  = regexp.MustCompile(`([क-ह])्([लरयनम])`)
	schwaAtEnd         = regexp.MustCompile(`([क-ह])अ$`)
	schwaBetweenConson = regexp.MustCompile(`([क-ह])अ([क-ह])`)
)

// SkeletonRule corrects nasal and cluster artifacts of the naive assembly.
func SkeletonRule() Rule { return literalRule("skeleton", skeletonPairs) }

// StructureRule restores nasal assimilation and known conjunct spellings.
func StructureRule() Rule { return literalRule("structure", structurePairs) }

// SuffixRule appends पुर or ग्राम when the English word ends in "pur" or
// "gram" and the rendering does not already end with it.
func SuffixRule() Rule {
	return Rule{
		Name: "suffix",
		Apply: func(word, text string) string {
			w := strings.ToLower(word)
			for _, s := range placeSuffixes {
				if strings.HasSuffix(w, s.from) && !strings.HasSuffix(text, s.to) {
					text += s.to
				}
			}
			return text
		},
	}
}

// SchwaRule removes an independent अ sitting between a consonant and a
// dependent vowel sign, then strips a single trailing अ. It is one pass only;
// overlapping matches are not revisited.
func SchwaRule() Rule {
	return Rule{
		Name: "schwa",
		Apply: func(_, text string) string {
			text = schwaBeforeMatra.ReplaceAllString(text, "${1}${2}")
			return strings.TrimSuffix(text, "अ")
		},
	}
}

// AnusvaraRule rewrites न or म before a stop consonant as anusvara.
func AnusvaraRule() Rule {
	return Rule{
		Name: "anusvara",
		Apply: func(_, text string) string {
			for _, re := range nasalBeforeStop {
				text = re.ReplaceAllString(text, anusvara+"${1}")
			}
			return text
		},
	}
}

// ClusterRule joins common consonant pairs into their conjunct forms.
func ClusterRule() Rule { return literalRule("clusters", clusterPairs) }

// NuktaRule adds a nukta below फ, ज, ड and ढ wherever one is not already
// present.
func NuktaRule() Rule {
	return Rule{
		Name: "nukta",
		Apply: func(_, text string) string {
			runes := []rune(text)
			var b strings.Builder
			b.Grow(len(text) + 8)
			for i, r := range runes {
				b.WriteRune(r)
				if nuktaBases[r] && (i+1 == len(runes) || string(runes[i+1]) != nukta) {
					b.WriteString(nukta)
				}
			}
			return b.String()
		},
	}
}

// DefaultCascade returns the seven-step repair cascade in its fixed order:
// skeleton, structure, suffix, schwa, anusvara, clusters, nukta.
func DefaultCascade() Cascade {
	return Cascade{
		SkeletonRule(),
		StructureRule(),
		SuffixRule(),
		SchwaRule(),
		AnusvaraRule(),
		ClusterRule(),
		NuktaRule(),
	}
}

// optionalRules are heuristics outside the default cascade. They can be
// appended by name through configuration.
var optionalRules = map[string]func() Rule{
	"restore-schwa":  RestoreSchwaRule,
	"vowel-length":   VowelLengthRule,
	"gemination":     GeminationRule,
	"schwa-deletion": SchwaDeletionRule,
}

// OptionalRule returns the named optional rule.
func OptionalRule(name string) (Rule, bool) {
	mk, ok := optionalRules[name]
	if !ok {
		return Rule{}, false
	}
	return mk(), true
}

// OptionalRuleNames lists the names accepted by [OptionalRule], sorted.
func OptionalRuleNames() []string {
	return []string{"gemination", "restore-schwa", "schwa-deletion", "vowel-length"}
}

// RestoreSchwaRule drops a virama at the end of the word or before a
// sonorant, letting the inherent vowel return.
func RestoreSchwaRule() Rule {
	return Rule{
		Name: "restore-schwa",
		Apply: func(_, text string) string {
			text = viramaAtEnd.ReplaceAllString(text, "${1}")
			return viramaBeforeSonor.ReplaceAllString(text, "${1}${2}")
		},
	}
}

// VowelLengthRule lengthens a final vowel the English spelling marks: a
// trailing "i" forces ी and a trailing "a" turns a final अ into ा.
func VowelLengthRule() Rule {
	return Rule{
		Name: "vowel-length",
		Apply: func(word, text string) string {
			w := strings.ToLower(word)
			if strings.HasSuffix(w, "i") && !strings.HasSuffix(text, "ी") {
				text += "ी"
			}
			if strings.HasSuffix(w, "a") && strings.HasSuffix(text, "अ") {
				text = strings.TrimSuffix(text, "अ") + "ा"
			}
			return text
		},
	}
}

// GeminationRule doubles ल, प or त when the English word spells the
// consonant twice.
func GeminationRule() Rule {
	return Rule{
		Name: "gemination",
		Apply: func(word, text string) string {
			w := strings.ToLower(word)
			if strings.Contains(w, "ll") {
				text = strings.ReplaceAll(text, "लि", "ल्लि")
				text = strings.ReplaceAll(text, "ली", "ल्ली")
				text = strings.Replace(text, "ल", "ल्ल", 1)
			}
			if strings.Contains(w, "pp") {
				text = strings.Replace(text, "प", "प्प", 1)
			}
			if strings.Contains(w, "tt") {
				text = strings.Replace(text, "त", "त्त", 1)
			}
			return text
		},
	}
}

// SchwaDeletionRule removes अ at the end of the word and between two
// consonants.
func SchwaDeletionRule() Rule {
	return Rule{
		Name: "schwa-deletion",
		Apply: func(_, text string) string {
			text = schwaAtEnd.ReplaceAllString(text, "${1}")
			return schwaBetweenConson.ReplaceAllString(text, "${1}${2}")
		},
	}
}
