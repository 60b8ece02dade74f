package theme

import "github.com/charmbracelet/lipgloss"

// KeywordPalette colors language keywords by role.
type KeywordPalette struct {
	Decl    lipgloss.Color
	Control lipgloss.Color
	Literal lipgloss.Color
	Logical lipgloss.Color
}

// ValuePalette colors rendered values by kind.
type ValuePalette struct {
	Null     lipgloss.Color
	Bool     lipgloss.Color
	Number   lipgloss.Color
	Char     lipgloss.Color
	String   lipgloss.Color
	Function lipgloss.Color
	Error    lipgloss.Color
	Punct    lipgloss.Color
}

type Theme struct {
	Prompt     lipgloss.Style
	Result     lipgloss.Style
	ResultType lipgloss.Style
	Error      lipgloss.Style
	ErrorKind  lipgloss.Style
	Location   lipgloss.Style
	Gutter     lipgloss.Style
	Caret      lipgloss.Style
	Traceback  lipgloss.Style
	Hint       lipgloss.Style
	Success    lipgloss.Style
	Muted      lipgloss.Style
	Keywords   KeywordPalette
	Values     ValuePalette
	Comment    lipgloss.Color
	Operator   lipgloss.Color
}

func DefaultTheme() Theme {
	return Theme{
		Prompt:     lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		Result:     lipgloss.NewStyle(),
		ResultType: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Italic(true),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F25F5C")),
		ErrorKind:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F25F5C")).Bold(true),
		Location:   lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")),
		Gutter:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Caret:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")).Bold(true),
		Traceback:  lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8")),
		Hint:       lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8")).Faint(true),
		Success:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77")),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Keywords: KeywordPalette{
			Decl:    lipgloss.Color("#CBA6F7"),
			Control: lipgloss.Color("#F38BA8"),
			Literal: lipgloss.Color("#FAB387"),
			Logical: lipgloss.Color("#89DCEB"),
		},
		Values: ValuePalette{
			Null:     lipgloss.Color("#6C7086"),
			Bool:     lipgloss.Color("#FAB387"),
			Number:   lipgloss.Color("#F9E2AF"),
			Char:     lipgloss.Color("#94E2D5"),
			String:   lipgloss.Color("#A6E3A1"),
			Function: lipgloss.Color("#89B4FA"),
			Error:    lipgloss.Color("#F25F5C"),
			Punct:    lipgloss.Color("#A6ADC8"),
		},
		Comment:  lipgloss.Color("#6C7086"),
		Operator: lipgloss.Color("#89DCEB"),
	}
}

// Plain has no colors or attributes; used when color is off.
func Plain() Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Prompt:     s,
		Result:     s,
		ResultType: s,
		Error:      s,
		ErrorKind:  s,
		Location:   s,
		Gutter:     s,
		Caret:      s,
		Traceback:  s,
		Hint:       s,
		Success:    s,
		Muted:      s,
	}
}
