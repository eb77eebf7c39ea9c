package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
)

// TestKeyMapDefaults verifies the bindings shared across tabs.
func TestKeyMapDefaults(t *testing.T) {
	k := newKeyMap()
	assertKeys := func(name string, binding key.Binding, expected ...string) {
		t.Helper()
		got := binding.Keys()
		if len(got) != len(expected) {
			t.Fatalf("%s key count mismatch got=%#v expected=%#v", name, got, expected)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("%s key mismatch got=%#v expected=%#v", name, got, expected)
			}
		}
	}

	assertKeys("quit", k.quit, "q", "ctrl+c")
	assertKeys("next tab", k.nextTab, "tab")
	assertKeys("clear checked", k.clearItems, "C", "shift+c")
	assertKeys("toggle item", k.toggleItem, " ", "space", "x")
	assertKeys("seed demo", k.seedDemo, "D", "shift+d")
}

// TestKeyMapHelpForTab verifies each tab advertises its own actions.
func TestKeyMapHelpForTab(t *testing.T) {
	k := newKeyMap()
	cases := []struct {
		name       string
		tab        tab
		recipeOpen bool
		debug      bool
		want       string
		absent     string
	}{
		{name: "week", tab: tabWeek, want: "assign driver", absent: "new item"},
		{name: "recipe list", tab: tabRecipes, want: "import url", absent: "substitute"},
		{name: "recipe detail", tab: tabRecipes, recipeOpen: true, want: "substitute", absent: "import url"},
		{name: "shopping", tab: tabShopping, want: "clear checked", absent: "assign driver"},
		{name: "family", tab: tabFamily, want: "invite", absent: "seed demo data"},
		{name: "family debug", tab: tabFamily, debug: true, want: "seed demo data"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := k.helpFor(tc.tab, tc.recipeOpen, tc.debug)
			if len(h.ShortHelp()) > 8 {
				t.Fatalf("expected short help to stay compact, got %d bindings", len(h.ShortHelp()))
			}
			found, absent := false, false
			for _, group := range h.FullHelp() {
				for _, b := range group {
					switch b.Help().Desc {
					case tc.want:
						found = true
					case tc.absent:
						absent = true
					}
				}
			}
			if !found {
				t.Fatalf("expected %q in %s help", tc.want, tc.name)
			}
			if tc.absent != "" && absent {
				t.Fatalf("did not expect %q in %s help", tc.absent, tc.name)
			}
		})
	}
}
