package faq

import (
	"strings"
	"testing"
)

func TestLookupForms(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"help", true, "Available Commands"},
		{"/help", true, "Available Commands"},
		{"/help@guidebot", true, "Available Commands"},
		{" /START ", true, "Welcome"},
		{"/judging", true, "Judging Process"},
		{"/unknown", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.in)
		if ok != tt.ok {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !strings.Contains(got, tt.want) {
			t.Errorf("Lookup(%q) missing %q", tt.in, tt.want)
		}
	}
}

func TestEveryCommandHasResponse(t *testing.T) {
	for _, c := range Commands() {
		if _, ok := Lookup(c.Name); !ok {
			t.Errorf("command %q has no response", c.Name)
		}
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	help, _ := Lookup("help")
	for _, c := range Commands() {
		if c.Name == "start" || c.Name == "help" {
			continue
		}
		if !strings.Contains(help, "/"+c.Name) {
			t.Errorf("/help does not mention /%s", c.Name)
		}
	}
}
