package p2g

// Devanagari signs emitted directly by the assembler and the repair rules.
const (
	virama   = "्"
	nukta    = "़"
	anusvara = "ं"
	shortI   = "ि"
	vowelE   = "ए"
)

// consonants maps ARPAbet consonant codes to their base Devanagari letter.
// PH and F share फ; V and W share व.
var consonants = map[string]string{
	"B":  "ब",
	"BH": "भ",
	"CH": "च",
	"D":  "द",
	"DH": "ध",
	"F":  "फ",
	"G":  "ग",
	"GH": "घ",
	"HH": "ह",
	"JH": "झ",
	"K":  "क",
	"KH": "ख",
	"L":  "ल",
	"M":  "म",
	"N":  "न",
	"NG": "ङ",
	"P":  "प",
	"PH": "फ",
	"R":  "र",
	"S":  "स",
	"SH": "श",
	"T":  "त",
	"TH": "थ",
	"V":  "व",
	"W":  "व",
	"Y":  "य",
	"Z":  "ज",
}

// matras maps vowel nuclei to the dependent sign used after a consonant.
// AH has no dependent sign and falls back to the independent अ, which the
// schwa cleanup rule later removes.
var matras = map[string]string{
	"AA": "ा",
	"AE": "ै",
	"AH": "अ",
	"AO": "ो",
	"EH": "े",
	"IH": "ि",
	"IY": "ी",
	"UH": "ु",
	"UW": "ू",
	"OW": "ो",
}

// fullVowels maps vowel nuclei to the independent letter used when no
// consonant is pending.
var fullVowels = map[string]string{
	"AA": "आ",
	"AE": "ऐ",
	"AH": "अ",
	"AO": "ओ",
	"EH": "ए",
	"IH": "इ",
	"IY": "ई",
	"UH": "उ",
	"UW": "ऊ",
	"OW": "ओ",
}

// IsConsonant reports whether code is a consonant the assembler renders.
func IsConsonant(code string) bool {
	_, ok := consonants[code]
	return ok
}

// IsVowel reports whether code is a vowel nucleus the assembler renders.
func IsVowel(code string) bool {
	_, ok := matras[code]
	return ok
}
