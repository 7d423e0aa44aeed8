package model

// rankAbbreviations maps rank codes to their printed form.
var rankAbbreviations = map[string]string{
	"CEL":     "Cel",
	"TEN_CEL": "Ten Cel",
	"MAJ":     "Maj",
	"CAP":     "Cap",
	"TEN_1":   "1º Ten",
	"TEN_2":   "2º Ten",
	"STEN":    "Sub Ten",
	"SGT_1":   "1º Sgt",
	"SGT_2":   "2º Sgt",
	"SGT_3":   "3º Sgt",
	"CB":      "Cb",
	"SD_EP":   "Sd EP",
	"SD_EV":   "Sd EV",
}

// RankAbbreviation returns the printable form of a rank code. Unknown codes
// are returned unchanged.
func RankAbbreviation(rank string) string {
	if abbr, ok := rankAbbreviations[rank]; ok {
		return abbr
	}
	return rank
}
