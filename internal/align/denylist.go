package align

// Built-in word lists consulted by the default filter rules. English entries
// are lower case; Hindi entries are compared verbatim.
var (
	// genericEnglish holds generic nouns that align with arbitrary Hindi text.
	genericEnglish = newSet(
		"survey", "report", "system", "project", "study", "development",
		"history",
	)

	// badEnglishHeads holds religious, geographic and administrative terms
	// known to produce spurious alignments.
	badEnglishHeads = newSet(
		"india", "state", "asia", "china", "bhavan", "rama",
		"allah", "khan", "sabha", "chairman", "islam", "shiva",
		"nation", "ministry", "training", "licensing",
	)

	badEnglishExtra = newSet(
		"also", "there", "their", "where", "which", "hebrew",
		"arabic", "islamic", "christian",
	)

	// badHindiSemantic holds Hindi words that are translations or sentence
	// fragments rather than renderings of a name.
	badHindiSemantic = newSet(
		"अल्लाह", "युद्ध", "हारा", "बारे", "किरण", "कारण",
		"अपराधियों", "तिब्बती", "हिंदुइज्मइन", "अपराधस्वीकरण", "प्रदूषण", "रावण",
		"व्रिटेन", "उससे", "इसके", "देखते", "प्रसन्न", "वाला",
		"ईमान", "डाला", "पर्ंतु", "भल्ला", "प्रतिदिन", "जाने",
		"उमरा", "जमदानी", "करने", "ईधारा",
	)

	badHindiTranslations = newSet(
		"त्रिकोणमिति", "निम्न", "उसने", "चाइल्ड",
	)

	// badHindiExtra holds pronouns, numerals and verbs.
	badHindiExtra = newSet(
		"मेरा", "तेरा", "उसका", "इसका", "बारह", "एक",
		"दो", "तीन", "लाना", "देना", "करना",
	)

	hindiHonorifics = newSet(
		"श्री", "श्रीमती", "कुमार", "कुमारी", "बाई",
	)

	// hindiFunctionWords are postpositions and conjunctions.
	hindiFunctionWords = newSet(
		"और", "का", "की", "के", "को", "में",
		"से", "पर",
	)
)

var (
	abstractSuffixes = []string{"ता", "पन", "त्व", "मय", "शील"}
	pluralSuffixes   = []string{"ें", "ों"}
	agentSuffixes    = []string{"er", "ion", "ism"}
)

// set is a string membership table.
type set map[string]struct{}

func newSet(words ...string) set {
	s := make(set, len(words))
	s.add(words...)
	return s
}

func (s set) add(words ...string) {
	for _, w := range words {
		s[w] = struct{}{}
	}
}

func (s set) has(w string) bool {
	_, ok := s[w]
	return ok
}

func (s set) clone() set {
	c := make(set, len(s))
	for w := range s {
		c[w] = struct{}{}
	}
	return c
}
