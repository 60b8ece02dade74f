package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name"        toml:"name"`
	Description string   `json:"description" toml:"description"`
	Author      string   `json:"author"      toml:"author"`
	Tags        []string `json:"tags"        toml:"tags"`
}

type ThemeSpec struct {
	Metadata *Metadata    `json:"metadata" toml:"metadata"`
	Styles   StylesSpec   `json:"styles"   toml:"styles"`
	Keywords *KeywordSpec `json:"keywords" toml:"keywords"`
	Values   *ValueSpec   `json:"values"   toml:"values"`
	Comment  *string      `json:"comment"  toml:"comment"`
	Operator *string      `json:"operator" toml:"operator"`
}

type StylesSpec struct {
	Prompt     *StyleSpec `json:"prompt"      toml:"prompt"`
	Result     *StyleSpec `json:"result"      toml:"result"`
	ResultType *StyleSpec `json:"result_type" toml:"result_type"`
	Error      *StyleSpec `json:"error"       toml:"error"`
	ErrorKind  *StyleSpec `json:"error_kind"  toml:"error_kind"`
	Location   *StyleSpec `json:"location"    toml:"location"`
	Gutter     *StyleSpec `json:"gutter"      toml:"gutter"`
	Caret      *StyleSpec `json:"caret"       toml:"caret"`
	Traceback  *StyleSpec `json:"traceback"   toml:"traceback"`
	Hint       *StyleSpec `json:"hint"        toml:"hint"`
	Success    *StyleSpec `json:"success"     toml:"success"`
	Muted      *StyleSpec `json:"muted"       toml:"muted"`
}

type KeywordSpec struct {
	Decl    *string `json:"decl"    toml:"decl"`
	Control *string `json:"control" toml:"control"`
	Literal *string `json:"literal" toml:"literal"`
	Logical *string `json:"logical" toml:"logical"`
}

type ValueSpec struct {
	Null     *string `json:"null"     toml:"null"`
	Bool     *string `json:"bool"     toml:"bool"`
	Number   *string `json:"number"   toml:"number"`
	Char     *string `json:"char"     toml:"char"`
	String   *string `json:"string"   toml:"string"`
	Function *string `json:"function" toml:"function"`
	Error    *string `json:"error"    toml:"error"`
	Punct    *string `json:"punct"    toml:"punct"`
}

type StyleSpec struct {
	Foreground *string `json:"foreground" toml:"foreground"`
	Background *string `json:"background" toml:"background"`
	Bold       *bool   `json:"bold"       toml:"bold"`
	Italic     *bool   `json:"italic"     toml:"italic"`
	Underline  *bool   `json:"underline"  toml:"underline"`
	Faint      *bool   `json:"faint"      toml:"faint"`
}

func ApplySpec(base Theme, spec ThemeSpec) (Theme, error) {
	out := base

	apply := func(name string, target *lipgloss.Style, override *StyleSpec) error {
		if override == nil {
			return nil
		}
		next, err := override.apply(*target)
		if err != nil {
			return fmt.Errorf("styles.%s: %w", name, err)
		}
		*target = next
		return nil
	}

	st := spec.Styles
	targets := []struct {
		name string
		dst  *lipgloss.Style
		src  *StyleSpec
	}{
		{"prompt", &out.Prompt, st.Prompt},
		{"result", &out.Result, st.Result},
		{"result_type", &out.ResultType, st.ResultType},
		{"error", &out.Error, st.Error},
		{"error_kind", &out.ErrorKind, st.ErrorKind},
		{"location", &out.Location, st.Location},
		{"gutter", &out.Gutter, st.Gutter},
		{"caret", &out.Caret, st.Caret},
		{"traceback", &out.Traceback, st.Traceback},
		{"hint", &out.Hint, st.Hint},
		{"success", &out.Success, st.Success},
		{"muted", &out.Muted, st.Muted},
	}
	for _, tg := range targets {
		if err := apply(tg.name, tg.dst, tg.src); err != nil {
			return Theme{}, err
		}
	}

	if k := spec.Keywords; k != nil {
		colors := []struct {
			name string
			dst  *lipgloss.Color
			src  *string
		}{
			{"keywords.decl", &out.Keywords.Decl, k.Decl},
			{"keywords.control", &out.Keywords.Control, k.Control},
			{"keywords.literal", &out.Keywords.Literal, k.Literal},
			{"keywords.logical", &out.Keywords.Logical, k.Logical},
		}
		for _, c := range colors {
			if err := setColor(c.name, c.dst, c.src); err != nil {
				return Theme{}, err
			}
		}
	}
	if v := spec.Values; v != nil {
		colors := []struct {
			name string
			dst  *lipgloss.Color
			src  *string
		}{
			{"values.null", &out.Values.Null, v.Null},
			{"values.bool", &out.Values.Bool, v.Bool},
			{"values.number", &out.Values.Number, v.Number},
			{"values.char", &out.Values.Char, v.Char},
			{"values.string", &out.Values.String, v.String},
			{"values.function", &out.Values.Function, v.Function},
			{"values.error", &out.Values.Error, v.Error},
			{"values.punct", &out.Values.Punct, v.Punct},
		}
		for _, c := range colors {
			if err := setColor(c.name, c.dst, c.src); err != nil {
				return Theme{}, err
			}
		}
	}
	if err := setColor("comment", &out.Comment, spec.Comment); err != nil {
		return Theme{}, err
	}
	if err := setColor("operator", &out.Operator, spec.Operator); err != nil {
		return Theme{}, err
	}
	return out, nil
}

func setColor(field string, dst *lipgloss.Color, src *string) error {
	if src == nil {
		return nil
	}
	c, err := toColor(field, *src)
	if err != nil {
		return err
	}
	*dst = c
	return nil
}

func (s *StyleSpec) apply(base lipgloss.Style) (lipgloss.Style, error) {
	if s == nil {
		return base, nil
	}
	current := base
	if s.Foreground != nil {
		color, err := toColor("foreground", *s.Foreground)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Foreground(color)
	}
	if s.Background != nil {
		color, err := toColor("background", *s.Background)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Background(color)
	}
	if s.Bold != nil {
		current = current.Bold(*s.Bold)
	}
	if s.Italic != nil {
		current = current.Italic(*s.Italic)
	}
	if s.Underline != nil {
		current = current.Underline(*s.Underline)
	}
	if s.Faint != nil {
		current = current.Faint(*s.Faint)
	}
	return current, nil
}

func toColor(field string, value string) (lipgloss.Color, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(trimmed), nil
}
