package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetUnknownFallsBackToDefault(t *testing.T) {
	th := Get("unknown-theme-xyz")
	if th.Name != "default" {
		t.Errorf("Get(unknown).Name = %q, want default", th.Name)
	}
	if _, ok := Lookup("unknown-theme-xyz"); ok {
		t.Error("Lookup(unknown) should report false")
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	if th := Get("Gruvbox"); th.Name != "gruvbox" {
		t.Errorf("Get(Gruvbox).Name = %q", th.Name)
	}
}

func TestBuiltinsAreComplete(t *testing.T) {
	for _, name := range Names() {
		th := Get(name)
		for field, v := range map[string]string{
			"foreground": th.Foreground,
			"dim":        th.Dim,
			"accent":     th.Accent,
			"border":     th.Border,
			"title":      th.Title,
			"unread":     th.Unread,
			"presence":   th.Presence,
			"ok":         th.StatusOK,
			"warn":       th.StatusWarn,
			"error":      th.StatusError,
			"help_key":   th.HelpKey,
			"help_desc":  th.HelpDesc,
		} {
			if !hexColor.MatchString(v) {
				t.Errorf("theme %q: %s = %q is not #RRGGBB", name, field, v)
			}
		}
	}
}

func TestLoadFromTOML(t *testing.T) {
	th, err := LoadFromTOML([]byte(`
name = "paper"

[base]
foreground = "#111111"
accent = "#aa0000"

[activity]
unread = "#0000ff"
`))
	if err != nil {
		t.Fatal(err)
	}
	if th.Name != "paper" || th.Foreground != "#111111" || th.Unread != "#0000ff" {
		t.Errorf("LoadFromTOML() = %+v", th)
	}
	if th.Dim != Get("default").Dim {
		t.Errorf("unset color not inherited from default: %q", th.Dim)
	}
}

func TestLoadFromTOMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "name = ", "parse TOML"},
		{"no name", "[base]\naccent = \"#ffffff\"", "missing name"},
		{"bad color", "name = \"x\"\n[status]\nerror = \"red\"", "status.error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromTOML([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadFileRegisters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.toml")
	if err := os.WriteFile(path, []byte("name = \"Mine\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if _, ok := Lookup("mine"); !ok {
		t.Error("loaded theme not registered")
	}
}

func TestNewStylesRenders(t *testing.T) {
	s := NewStyles(Get("nord"))
	if got := s.Title.Render("hello"); !strings.Contains(got, "hello") {
		t.Errorf("Title.Render() = %q", got)
	}
	if h := s.Help(); h.ShortKey.Render("g") == "" {
		t.Error("help key style renders empty")
	}
}
