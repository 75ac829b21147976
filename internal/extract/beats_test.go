package extract

import "testing"

func TestNormalizeBeat(t *testing.T) {
	tests := []struct {
		name    string
		section string
		title   string
		want    string
	}{
		{"plain section", "World", "", BeatWorld},
		{"abbreviated section", "INTL", "", BeatWorld},
		{"sports variants", "Sport", "", BeatSports},
		{"economy maps to business", "Economy & Markets", "", BeatBusiness},
		{"entertainment maps to culture", "Entertainment", "", BeatCulture},
		{"lifestyle maps to culture", "Lifestyle", "", BeatCulture},
		{"opinion", "Opinion | Columns", "", BeatOpinion},
		{"health", "Health", "", BeatHealth},
		{"climate maps to environment", "Climate Crisis", "", BeatEnvironment},
		{"politics from section", "Election 2024", "", BeatPolitics},
		{"section beats title", "Sport", "Election results are in", BeatSports},
		{"title fallback sports", "", "Local team wins championship", BeatSports},
		{"title fallback politics", "", "Minister resigns after vote", BeatPolitics},
		{"title fallback tech", "", "New software flaw disclosed", BeatTechnology},
		{"nothing known", "", "", BeatUnknown},
		{"unmapped section and title", "Miscellany", "A quiet afternoon", BeatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBeat(tt.section, tt.title); got != tt.want {
				t.Errorf("NormalizeBeat(%q, %q) = %q, want %q", tt.section, tt.title, got, tt.want)
			}
		})
	}
}
