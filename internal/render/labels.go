package render

import "golang.org/x/text/language"

// Labels are the localized texts drawn on a chart.
type Labels struct {
	Tag language.Tag

	// TitleFormat receives the observer name.
	TitleFormat string
	// Rings label zenith distances 0, 30, 60 and 90.
	Rings [4]string

	North   string
	East    string
	South   string
	West    string
	Horizon string

	// Bodies maps lower-case body names to display names.
	Bodies map[string]string
}

// BodyLabel returns the localized name of a body, or name itself.
func (l Labels) BodyLabel(key, name string) string {
	if s, ok := l.Bodies[key]; ok {
		return s
	}
	return name
}

// English labels.
var English = Labels{
	Tag:         language.English,
	TitleFormat: "Sky above %s",
	Rings:       [4]string{"90°", "60°", "30°", "Horizon"},
	North:       "N",
	East:        "E",
	South:       "S",
	West:        "W",
	Horizon:     "Horizon",
	Bodies: map[string]string{
		"sun":     "Sun",
		"moon":    "Moon",
		"mercury": "Mercury",
		"venus":   "Venus",
		"mars":    "Mars",
		"jupiter": "Jupiter",
		"saturn":  "Saturn",
		"uranus":  "Uranus",
		"neptune": "Neptune",
	},
}

// Hungarian labels.
var Hungarian = Labels{
	Tag:         language.Hungarian,
	TitleFormat: "Égbolt %s felett",
	Rings:       [4]string{"90°", "60°", "30°", "Horizont"},
	North:       "Észak",
	East:        "Kelet",
	South:       "Dél",
	West:        "Nyugat",
	Horizon:     "Horizont",
	Bodies: map[string]string{
		"sun":     "Nap",
		"moon":    "Hold",
		"mercury": "Merkúr",
		"venus":   "Vénusz",
		"mars":    "Mars",
		"jupiter": "Jupiter",
		"saturn":  "Szaturnusz",
		"uranus":  "Uránusz",
		"neptune": "Neptunusz",
	},
}

var (
	supported = []Labels{English, Hungarian}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Hungarian})
)

// LabelsFor picks the best label set for a list of language preferences,
// each either a tag like "hu" or an Accept-Language header value.
// Unmatched or malformed input yields English.
func LabelsFor(prefs ...string) Labels {
	var tags []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	return supported[idx]
}
