package speech

import "testing"

func TestSelectVoice(t *testing.T) {
	tests := []struct {
		name   string
		voices []Voice
		want   string
		ok     bool
	}{
		{"empty", nil, "", false},
		{"first female wins", []Voice{
			{ID: "a", Name: "Guy (Male)"},
			{ID: "b", Name: "Aria (Female)"},
			{ID: "c", Name: "Jenny (Female)"},
		}, "b", true},
		{"case insensitive", []Voice{
			{ID: "a", Name: "english-us"},
			{ID: "b", Name: "english FEMALE 2"},
		}, "b", true},
		{"fallback to first", []Voice{
			{ID: "a", Name: "Guy (Male)"},
			{ID: "b", Name: "Davis (Male)"},
		}, "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectVoice(tt.voices)
			if ok != tt.ok || got.ID != tt.want {
				t.Fatalf("SelectVoice = (%q, %v), want (%q, %v)", got.ID, ok, tt.want, tt.ok)
			}
		})
	}
}
