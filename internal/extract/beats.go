package extract

import "strings"

// Beat vocabulary. Every raw section string maps into exactly one of these.
const (
	BeatWorld       = "World"
	BeatPolitics    = "Politics"
	BeatBusiness    = "Business"
	BeatSports      = "Sports"
	BeatTechnology  = "Technology"
	BeatCulture     = "Culture"
	BeatScience     = "Science"
	BeatOpinion     = "Opinion"
	BeatHealth      = "Health"
	BeatEnvironment = "Environment"
	BeatBreaking    = "Breaking"
	BeatUnknown     = "Unknown"
)

// Beats lists the full vocabulary in display order.
var Beats = []string{
	BeatWorld, BeatPolitics, BeatBusiness, BeatSports,
	BeatTechnology, BeatCulture, BeatScience, BeatOpinion,
	BeatHealth, BeatEnvironment, BeatBreaking, BeatUnknown,
}

// sectionKeywords map substrings of a raw section/category label to a beat.
// Order matters: earlier entries win on overlapping labels.
var sectionKeywords = []struct {
	substr string
	beat   string
}{
	{"breaking", BeatBreaking},
	{"live", BeatBreaking},
	{"opinion", BeatOpinion},
	{"editorial", BeatOpinion},
	{"column", BeatOpinion},
	{"comment", BeatOpinion},
	{"sport", BeatSports},
	{"cricket", BeatSports},
	{"football", BeatSports},
	{"intl", BeatWorld},
	{"world", BeatWorld},
	{"international", BeatWorld},
	{"global", BeatWorld},
	{"foreign", BeatWorld},
	{"politic", BeatPolitics},
	{"election", BeatPolitics},
	{"government", BeatPolitics},
	{"parliament", BeatPolitics},
	{"business", BeatBusiness},
	{"econom", BeatBusiness},
	{"market", BeatBusiness},
	{"finance", BeatBusiness},
	{"money", BeatBusiness},
	{"tech", BeatTechnology},
	{"digital", BeatTechnology},
	{"cyber", BeatTechnology},
	{"gadget", BeatTechnology},
	{"ai", BeatTechnology},
	{"science", BeatScience},
	{"research", BeatScience},
	{"space", BeatScience},
	{"health", BeatHealth},
	{"medic", BeatHealth},
	{"wellness", BeatHealth},
	{"covid", BeatHealth},
	{"environment", BeatEnvironment},
	{"climate", BeatEnvironment},
	{"energy", BeatEnvironment},
	{"culture", BeatCulture},
	{"entertainment", BeatCulture},
	{"arts", BeatCulture},
	{"art", BeatCulture},
	{"lifestyle", BeatCulture},
	{"film", BeatCulture},
	{"movie", BeatCulture},
	{"music", BeatCulture},
	{"book", BeatCulture},
	{"travel", BeatCulture},
	{"food", BeatCulture},
	{"news", BeatBreaking},
}

// titleKeywords is the weaker fallback applied to the article title when
// the page carried no usable section label.
var titleKeywords = []struct {
	substr string
	beat   string
}{
	{"championship", BeatSports},
	{"tournament", BeatSports},
	{"league", BeatSports},
	{"match", BeatSports},
	{"team wins", BeatSports},
	{"world cup", BeatSports},
	{"olympic", BeatSports},
	{"election", BeatPolitics},
	{"minister", BeatPolitics},
	{"senate", BeatPolitics},
	{"parliament", BeatPolitics},
	{"stock", BeatBusiness},
	{"economy", BeatBusiness},
	{"inflation", BeatBusiness},
	{"startup", BeatBusiness},
	{"iphone", BeatTechnology},
	{"software", BeatTechnology},
	{"artificial intelligence", BeatTechnology},
	{"chip", BeatTechnology},
	{"climate", BeatEnvironment},
	{"wildfire", BeatEnvironment},
	{"vaccine", BeatHealth},
	{"hospital", BeatHealth},
	{"outbreak", BeatHealth},
	{"nasa", BeatScience},
	{"telescope", BeatScience},
	{"festival", BeatCulture},
	{"box office", BeatCulture},
}

// NormalizeBeat maps a raw section label (and, failing that, the article
// title) into the fixed beat vocabulary. Section keywords take precedence;
// an empty or unrecognized input maps to Unknown.
func NormalizeBeat(section, title string) string {
	s := strings.ToLower(strings.TrimSpace(section))
	if s != "" {
		for _, kw := range sectionKeywords {
			if kw.substr == "ai" {
				// Too short for substring matching; require a word.
				if hasWord(s, "ai") {
					return kw.beat
				}
				continue
			}
			if strings.Contains(s, kw.substr) {
				return kw.beat
			}
		}
	}

	t := strings.ToLower(strings.TrimSpace(title))
	if t != "" {
		for _, kw := range titleKeywords {
			if strings.Contains(t, kw.substr) {
				return kw.beat
			}
		}
	}
	return BeatUnknown
}

func hasWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/' || r == '&'
	}) {
		if f == word {
			return true
		}
	}
	return false
}
