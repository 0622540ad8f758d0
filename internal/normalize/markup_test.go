package normalize

import "testing"

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Murder", "Murder"},
		{"paragraph", "<p>Punishment for <b>theft</b></p>", "Punishment for theft"},
		{"blocks", "<p>Whoever commits murder</p><p>shall be punished</p>", "Whoever commits murder shall be punished"},
		{"script dropped", "Cheating<script>alert(1)</script>", "Cheating"},
		{"comparison is not markup", "a < b", "a < b"},
		{"entities", "<i>Rs.</i> 5,000 &amp; fine", "Rs. 5,000 & fine"},
		{"whitespace kept", "Murder <i>punishable</i>  with   death", "Murder punishable  with   death"},
		{"unknown tag kept verbatim", "Dowry death where value<lakh and term>7 years", "Dowry death where value<lakh and term>7 years"},
		{"unknown tag beside known tag", "<b>Note</b> value<lakh and term>7", "<b>Note</b> value<lakh and term>7"},
		{"line break", "Imprisonment<br>or fine", "Imprisonment or fine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_StripMarkupToggle(t *testing.T) {
	payload := []byte(`{"acts": {"379": "<p>Theft</p>"}}`)

	on, err := New(true).Parse("q", payload)
	if err != nil {
		t.Fatal(err)
	}
	if got := Flatten(on.Response); got != "Section 379: Theft" {
		t.Errorf("with stripping: %q", got)
	}

	off, err := New(false).Parse("q", payload)
	if err != nil {
		t.Fatal(err)
	}
	if got := Flatten(off.Response); got != "Section 379: <p>Theft</p>" {
		t.Errorf("without stripping: %q", got)
	}
}

func TestParse_StripMarkupKeepsLegalText(t *testing.T) {
	payload := []byte(`{"acts": {"304B": "Dowry death if death occurs within 7 years where value<lakh and term>7 years"}}`)

	answer, err := New(true).Parse("q", payload)
	if err != nil {
		t.Fatal(err)
	}
	want := "Section 304B: Dowry death if death occurs within 7 years where value<lakh and term>7 years"
	if got := Flatten(answer.Response); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
