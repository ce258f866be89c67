package theme

func builtins() []Theme {
	return []Theme{defaultTheme(), gruvboxTheme(), nordTheme(), tokyoNightTheme()}
}

// defaultTheme is dark neutral with a purple accent.
func defaultTheme() Theme {
	return Theme{
		Name:       "default",
		Foreground: "#d4d4d4",
		Dim:        "#6b6b6b",
		Accent:     "#7C3AED",
		Border:     "#3e3e3e",
		Title:      "#d4d4d4",

		Unread:   "#61afef",
		Presence: "#4ec970",

		StatusOK:    "#4ec970",
		StatusWarn:  "#e5c07b",
		StatusError: "#e06c75",

		HelpKey:  "#7C3AED",
		HelpDesc: "#6b6b6b",
	}
}

func gruvboxTheme() Theme {
	return Theme{
		Name:       "gruvbox",
		Foreground: "#ebdbb2",
		Dim:        "#928374",
		Accent:     "#fe8019",
		Border:     "#504945",
		Title:      "#ebdbb2",

		Unread:   "#83a598",
		Presence: "#b8bb26",

		StatusOK:    "#b8bb26",
		StatusWarn:  "#fabd2f",
		StatusError: "#fb4934",

		HelpKey:  "#fe8019",
		HelpDesc: "#928374",
	}
}

func nordTheme() Theme {
	return Theme{
		Name:       "nord",
		Foreground: "#eceff4",
		Dim:        "#4c566a",
		Accent:     "#88c0d0",
		Border:     "#3b4252",
		Title:      "#eceff4",

		Unread:   "#81a1c1",
		Presence: "#a3be8c",

		StatusOK:    "#a3be8c",
		StatusWarn:  "#ebcb8b",
		StatusError: "#bf616a",

		HelpKey:  "#88c0d0",
		HelpDesc: "#4c566a",
	}
}

func tokyoNightTheme() Theme {
	return Theme{
		Name:       "tokyo-night",
		Foreground: "#c0caf5",
		Dim:        "#565f89",
		Accent:     "#7aa2f7",
		Border:     "#292e42",
		Title:      "#c0caf5",

		Unread:   "#7dcfff",
		Presence: "#9ece6a",

		StatusOK:    "#9ece6a",
		StatusWarn:  "#e0af68",
		StatusError: "#f7768e",

		HelpKey:  "#7aa2f7",
		HelpDesc: "#565f89",
	}
}
