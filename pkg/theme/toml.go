package theme

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// tomlTheme is the on-disk shape of a user theme.
type tomlTheme struct {
	Name     string       `toml:"name"`
	Base     tomlBase     `toml:"base"`
	Activity tomlActivity `toml:"activity"`
	Status   tomlStatus   `toml:"status"`
	Help     tomlHelp     `toml:"help"`
}

type tomlBase struct {
	Foreground string `toml:"foreground"`
	Dim        string `toml:"dim"`
	Accent     string `toml:"accent"`
	Border     string `toml:"border"`
	Title      string `toml:"title"`
}

type tomlActivity struct {
	Unread   string `toml:"unread"`
	Presence string `toml:"presence"`
}

type tomlStatus struct {
	OK    string `toml:"ok"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
}

type tomlHelp struct {
	Key  string `toml:"key"`
	Desc string `toml:"desc"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFromTOML parses a theme definition. Colors left out are taken from the
// default theme.
func LoadFromTOML(data []byte) (Theme, error) {
	var tt tomlTheme
	if err := toml.Unmarshal(data, &tt); err != nil {
		return Theme{}, fmt.Errorf("theme: parse TOML: %w", err)
	}
	if tt.Name == "" {
		return Theme{}, fmt.Errorf("theme: missing name")
	}

	t := defaultTheme()
	t.Name = tt.Name
	for _, f := range []struct {
		field string
		dst   *string
		val   string
	}{
		{"base.foreground", &t.Foreground, tt.Base.Foreground},
		{"base.dim", &t.Dim, tt.Base.Dim},
		{"base.accent", &t.Accent, tt.Base.Accent},
		{"base.border", &t.Border, tt.Base.Border},
		{"base.title", &t.Title, tt.Base.Title},
		{"activity.unread", &t.Unread, tt.Activity.Unread},
		{"activity.presence", &t.Presence, tt.Activity.Presence},
		{"status.ok", &t.StatusOK, tt.Status.OK},
		{"status.warn", &t.StatusWarn, tt.Status.Warn},
		{"status.error", &t.StatusError, tt.Status.Error},
		{"help.key", &t.HelpKey, tt.Help.Key},
		{"help.desc", &t.HelpDesc, tt.Help.Desc},
	} {
		if f.val == "" {
			continue
		}
		if !hexColor.MatchString(f.val) {
			return Theme{}, fmt.Errorf("theme: invalid hex color %q for %s (expected #RRGGBB)", f.val, f.field)
		}
		*f.dst = f.val
	}
	return t, nil
}

// LoadFile reads a theme from path and registers it.
func LoadFile(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("theme: %w", err)
	}
	t, err := LoadFromTOML(data)
	if err != nil {
		return Theme{}, fmt.Errorf("%w (%s)", err, path)
	}
	Register(t)
	return t, nil
}
