package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v4"

	"github.com/sk-lang/sk/internal/errdef"
	"github.com/sk-lang/sk/internal/sk"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
	SettingsFormatYAML SettingsFormat = "yaml"
)

const (
	ScopeDynamic = "dynamic"
	ScopeLexical = "lexical"

	DivisionIEEE   = "ieee"
	DivisionStrict = "strict"

	PromptDefault     = "sk> "
	MaxHistoryDefault = 500
	ServiceDefault    = "sk"
)

type Settings struct {
	Interpreter InterpreterSettings `json:"interpreter" toml:"interpreter" yaml:"interpreter"`
	REPL        REPLSettings        `json:"repl"        toml:"repl"        yaml:"repl"`
	Telemetry   TelemetrySettings   `json:"telemetry"   toml:"telemetry"   yaml:"telemetry"`
}

type InterpreterSettings struct {
	MaxCall  int    `json:"max_call"  toml:"max_call"  yaml:"max_call"`
	MaxSteps int    `json:"max_steps" toml:"max_steps" yaml:"max_steps"`
	MaxStr   int    `json:"max_str"   toml:"max_str"   yaml:"max_str"`
	MaxList  int    `json:"max_list"  toml:"max_list"  yaml:"max_list"`
	Timeout  string `json:"timeout"   toml:"timeout"   yaml:"timeout"`
	Scope    string `json:"scope"     toml:"scope"     yaml:"scope"`
	Division string `json:"division"  toml:"division"  yaml:"division"`
}

type REPLSettings struct {
	Prompt      string `json:"prompt"       toml:"prompt"       yaml:"prompt"`
	HistoryFile string `json:"history_file" toml:"history_file" yaml:"history_file"`
	MaxHistory  int    `json:"max_history"  toml:"max_history"  yaml:"max_history"`
	Color       *bool  `json:"color"        toml:"color"        yaml:"color"`
	Theme       string `json:"theme"        toml:"theme"        yaml:"theme"`
}

type TelemetrySettings struct {
	Endpoint    string            `json:"endpoint"     toml:"endpoint"     yaml:"endpoint"`
	Insecure    bool              `json:"insecure"     toml:"insecure"     yaml:"insecure"`
	ServiceName string            `json:"service_name" toml:"service_name" yaml:"service_name"`
	Headers     map[string]string `json:"headers"      toml:"headers"      yaml:"headers"`
}

type SettingsFormat string
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

// Dir is $SK_CONFIG_DIR when set, else the user config dir plus "sk".
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv("SK_CONFIG_DIR")); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		home, herr := os.UserHomeDir()
		if herr != nil || home == "" {
			return ".sk"
		}
		return filepath.Join(home, ".sk")
	}
	return filepath.Join(base, "sk")
}

func DefaultSettings() Settings {
	lim := sk.DefaultLimits()
	return Settings{
		Interpreter: InterpreterSettings{
			MaxCall:  lim.MaxCall,
			MaxStr:   lim.MaxStr,
			MaxList:  lim.MaxList,
			Scope:    ScopeDynamic,
			Division: DivisionIEEE,
		},
		REPL: REPLSettings{
			Prompt:     PromptDefault,
			MaxHistory: MaxHistoryDefault,
		},
		Telemetry: TelemetrySettings{
			ServiceName: ServiceDefault,
		},
	}
}

// tries TOML, then JSON, then YAML. parse errors fail immediately,
// missing files skip to the next format, and nothing found yields defaults.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
		{Path: filepath.Join(dir, "settings.yaml"), Format: SettingsFormatYAML},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				errdef.Wrap(errdef.CodeFilesystem, err, "read settings %q", candidate.Path),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, errdef.Wrap(
				errdef.CodeConfig,
				err,
				"parse settings %q",
				candidate.Path,
			)
		}
		settings, err = Normalise(settings)
		if err != nil {
			return Settings{}, SettingsHandle{}, errdef.Wrap(
				errdef.CodeConfig,
				err,
				"settings %q",
				candidate.Path,
			)
		}
		return settings, candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return DefaultSettings(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatYAML:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

// Normalise fills zero fields with defaults and rejects unknown enum values.
func Normalise(in Settings) (Settings, error) {
	out := in
	def := DefaultSettings()
	it := &out.Interpreter
	if it.MaxCall <= 0 {
		it.MaxCall = def.Interpreter.MaxCall
	}
	if it.MaxStr <= 0 {
		it.MaxStr = def.Interpreter.MaxStr
	}
	if it.MaxList <= 0 {
		it.MaxList = def.Interpreter.MaxList
	}
	if it.MaxSteps < 0 {
		it.MaxSteps = 0
	}
	it.Scope = strings.ToLower(strings.TrimSpace(it.Scope))
	switch it.Scope {
	case "":
		it.Scope = ScopeDynamic
	case ScopeDynamic, ScopeLexical:
	default:
		return Settings{}, fmt.Errorf("unknown scope policy %q", in.Interpreter.Scope)
	}
	it.Division = strings.ToLower(strings.TrimSpace(it.Division))
	switch it.Division {
	case "":
		it.Division = DivisionIEEE
	case DivisionIEEE, DivisionStrict:
	default:
		return Settings{}, fmt.Errorf("unknown division policy %q", in.Interpreter.Division)
	}
	if strings.TrimSpace(it.Timeout) != "" {
		if _, err := time.ParseDuration(it.Timeout); err != nil {
			return Settings{}, fmt.Errorf("timeout: %w", err)
		}
	}

	if out.REPL.Prompt == "" {
		out.REPL.Prompt = def.REPL.Prompt
	}
	if out.REPL.MaxHistory <= 0 {
		out.REPL.MaxHistory = def.REPL.MaxHistory
	}
	if strings.TrimSpace(out.Telemetry.ServiceName) == "" {
		out.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	return out, nil
}

// Limits converts the interpreter section; an invalid timeout counts as none.
func (s Settings) Limits() sk.Limits {
	lim := sk.DefaultLimits()
	it := s.Interpreter
	if it.MaxCall > 0 {
		lim.MaxCall = it.MaxCall
	}
	if it.MaxSteps > 0 {
		lim.MaxSteps = it.MaxSteps
	}
	if it.MaxStr > 0 {
		lim.MaxStr = it.MaxStr
	}
	if it.MaxList > 0 {
		lim.MaxList = it.MaxList
	}
	if d, err := time.ParseDuration(strings.TrimSpace(it.Timeout)); err == nil && d > 0 {
		lim.Timeout = d
	}
	return lim
}

func (s Settings) Options() []sk.Option {
	opts := []sk.Option{sk.WithLimits(s.Limits())}
	if s.Interpreter.Scope == ScopeLexical {
		opts = append(opts, sk.WithScopePolicy(sk.ScopeLexical))
	} else {
		opts = append(opts, sk.WithScopePolicy(sk.ScopeDynamic))
	}
	if s.Interpreter.Division == DivisionStrict {
		opts = append(opts, sk.WithDivision(sk.DivStrict))
	} else {
		opts = append(opts, sk.WithDivision(sk.DivIEEE))
	}
	return opts
}

// HistoryPath resolves the REPL history file relative to Dir.
func (s Settings) HistoryPath() string {
	p := strings.TrimSpace(s.REPL.HistoryFile)
	if p == "" {
		return filepath.Join(Dir(), "history.json")
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(Dir(), p)
}

// ThemeDirs lists where user theme files are looked up.
func ThemeDirs() []string {
	return []string{filepath.Join(Dir(), "themes")}
}

// ColorEnabled reports the color setting, defaulting to on.
func (s Settings) ColorEnabled() bool {
	return s.REPL.Color == nil || *s.REPL.Color
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings, err := Normalise(settings)
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "save settings")
	}
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "ensure settings directory")
	}

	var data []byte
	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	case SettingsFormatYAML:
		data, err = yaml.Marshal(settings)
	default:
		return errdef.New(errdef.CodeConfig, "unsupported settings format %q", format)
	}
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "encode settings")
	}

	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write settings %q", path)
	}
	return nil
}

// WriteFileAtomic writes to a temp file in the same dir and renames it over path.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sk-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
