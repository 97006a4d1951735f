package theme

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestThemesRegistered(t *testing.T) {
	want := []string{"dracula", "gruvbox", "nord", "tokyonight"}
	if diff := cmp.Diff(want, Available()); diff != "" {
		t.Errorf("available themes (-want +got):\n%s", diff)
	}
}

func TestDefaultThemeIsCurrent(t *testing.T) {
	if got := Current().Name; got != DefaultName {
		t.Errorf("current theme = %q, want %q", got, DefaultName)
	}
}

func TestSetAndCycle(t *testing.T) {
	t.Cleanup(func() { Set(DefaultName) })

	if Set("missing") {
		t.Fatal("Set accepted an unknown theme")
	}
	if !Set("nord") {
		t.Fatal("Set rejected nord")
	}
	if got := Cycle(); got != "tokyonight" {
		t.Errorf("Cycle after nord = %q, want tokyonight", got)
	}
	if got := Cycle(); got != "dracula" {
		t.Errorf("Cycle wraps to %q, want dracula", got)
	}
}

func TestPalettesComplete(t *testing.T) {
	for _, name := range Available() {
		Set(name)
		th := Current()
		colors := map[string]string{
			"Primary": th.Primary.Dark, "Text": th.Text.Dark, "Error": th.Error.Dark,
			"Success": th.Success.Dark, "Background": th.Background.Dark, "BorderFocused": th.BorderFocused.Light,
		}
		for field, v := range colors {
			if v == "" {
				t.Errorf("%s: %s is empty", name, field)
			}
		}
	}
	Set(DefaultName)
}
