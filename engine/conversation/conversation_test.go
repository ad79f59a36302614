package conversation

import "testing"

func TestAddressed(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		private    bool
		replyToBot bool
		handles    []string
		want       bool
	}{
		{"private always addressed", "hi", true, false, nil, true},
		{"reply to bot", "and judges?", false, true, []string{"@guidebot"}, true},
		{"group with mention", "@guidebot how do I add judges?", false, false, []string{"@guidebot"}, true},
		{"group without mention", "how do I add judges?", false, false, []string{"@guidebot"}, false},
		{"second handle matches", "<@!42> help", false, false, []string{"<@42>", "<@!42>"}, true},
		{"empty handle ignored", "anything", false, false, []string{""}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Addressed(c.text, c.private, c.replyToBot, c.handles...)
			if got != c.want {
				t.Errorf("Addressed() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestStripHandles(t *testing.T) {
	got := StripHandles("<@42> how do I add judges? <@!42>", "<@42>", "<@!42>")
	if got != "how do I add judges?" {
		t.Errorf("StripHandles() = %q", got)
	}
	if got := StripHandles("  plain question  "); got != "plain question" {
		t.Errorf("no handles: got %q", got)
	}
}
