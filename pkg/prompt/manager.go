package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var embedded embed.FS

// Section is one prompt fragment.
type Section struct {
	System     string `mapstructure:"system"`
	User       string `mapstructure:"user"`
	UserAppend string `mapstructure:"user_append"`
}

// Template is the prompt definition of one stage.
type Template struct {
	Base           Section            `mapstructure:"base"`
	ByNewsType     map[string]Section `mapstructure:"by_news_type"`
	ByTargetStyle  map[string]Section `mapstructure:"by_target_style"`
	ByTone         map[string]Section `mapstructure:"by_tone"`
	RevisionAppend string             `mapstructure:"revision_append"`
}

// Parameter fields that carry an option list.
const (
	FieldNewsType    = "news_type"
	FieldTargetStyle = "target_style"
	FieldTone        = "tone"
)

// Which parameter appendices each stage takes.
var selectors = map[domain.StageName][]string{
	domain.StageAlpha: {FieldNewsType, FieldTargetStyle, FieldTone},
	domain.StageBeta:  {FieldTargetStyle, FieldTone},
	domain.StageGamma: {FieldTargetStyle},
	domain.StageDelta: {FieldTone},
}

var sourceLabels = map[string]string{
	FieldNewsType:    "類型",
	FieldTargetStyle: "風格",
	FieldTone:        "語氣",
}

// Manager composes stage prompts from the embedded templates plus optional
// overrides.
type Manager struct {
	templates map[domain.StageName]Template
	options   map[string][]domain.Option
}

// Option configures a Manager.
type Option func(*config)

type config struct {
	overridesDir string
}

// WithOverridesDir merges <dir>/<stage>.yaml (or .json) over the embedded templates.
func WithOverridesDir(dir string) Option {
	return func(c *config) {
		c.overridesDir = dir
	}
}

// New loads all stage templates.
func New(opts ...Option) (*Manager, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Manager{
		templates: make(map[domain.StageName]Template, len(domain.Stages)),
	}
	for _, stage := range domain.Stages {
		raw, err := readYAML(embedded, "templates/"+stage.Key()+".yaml")
		if err != nil {
			return nil, err
		}
		if cfg.overridesDir != "" {
			override, err := readOverride(cfg.overridesDir, stage.Key())
			if err != nil {
				return nil, err
			}
			raw = deepMerge(raw, override)
		}
		var tpl Template
		if err := mapstructure.Decode(raw, &tpl); err != nil {
			return nil, fmt.Errorf("decode %s template: %w", stage.Key(), err)
		}
		m.templates[stage] = tpl
	}

	data, err := embedded.ReadFile("templates/summaries.yaml")
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &m.options); err != nil {
		return nil, fmt.Errorf("parse summaries: %w", err)
	}
	return m, nil
}

// Template returns the merged template of stage.
func (m *Manager) Template(stage domain.StageName) (Template, bool) {
	tpl, ok := m.templates[stage]
	return tpl, ok
}

// Compose builds the prompt for stage. vars fill {key} placeholders and
// appendix is added after the parameter appendices (revision notes).
func (m *Manager) Compose(stage domain.StageName, vars map[string]string, params domain.Parameters, appendix string) (domain.Prompt, error) {
	tpl, ok := m.templates[stage]
	if !ok {
		return domain.Prompt{}, fmt.Errorf("%w: no template for stage %q", domain.ErrValidation, stage)
	}

	user := tpl.Base.User
	var notes []string
	for _, field := range selectors[stage] {
		value := paramValue(params, field)
		sec, ok := tpl.section(field)[value]
		if !ok || sec.UserAppend == "" {
			continue
		}
		user += "\n" + sec.UserAppend
		notes = append(notes, fmt.Sprintf("[來源: %s=%s] %s", sourceLabels[field], value, sec.UserAppend))
	}
	if len(notes) > 0 {
		user += "\n\n# 設計依據\n" + strings.Join(notes, "\n")
	}
	if appendix != "" {
		user += "\n" + appendix
	}

	return domain.Prompt{
		System: Substitute(tpl.Base.System, vars),
		User:   Substitute(user, vars),
	}, nil
}

// RevisionAppend renders the stage's revision instruction for notes, or "".
func (m *Manager) RevisionAppend(stage domain.StageName, notes string) string {
	tpl := m.templates[stage]
	if strings.TrimSpace(notes) == "" || tpl.RevisionAppend == "" {
		return ""
	}
	return "\n" + Substitute(tpl.RevisionAppend, map[string]string{"revision_notes": notes})
}

// Options lists the selectable values of a parameter field in display order.
func (m *Manager) Options(field string) []domain.Option {
	return append([]domain.Option(nil), m.options[field]...)
}

// Summary returns the one-line description of a parameter value.
func (m *Manager) Summary(field, value string) string {
	for _, opt := range m.options[field] {
		if opt.Value == value {
			return opt.Summary
		}
	}
	return ""
}

// Preview renders a prompt for --show-prompts.
func Preview(p domain.Prompt) string {
	return strings.TrimSpace("[SYSTEM]\n" + p.System + "\n\n[USER]\n" + p.User)
}

// Substitute replaces each {key} in s. Unknown placeholders are left alone,
// so literal JSON examples in templates survive.
func Substitute(s string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

func (t Template) section(field string) map[string]Section {
	switch field {
	case FieldNewsType:
		return t.ByNewsType
	case FieldTargetStyle:
		return t.ByTargetStyle
	case FieldTone:
		return t.ByTone
	}
	return nil
}

func paramValue(p domain.Parameters, field string) string {
	switch field {
	case FieldNewsType:
		return p.NewsType
	case FieldTargetStyle:
		return p.TargetStyle
	case FieldTone:
		return p.Tone
	}
	return ""
}

func readYAML(fsys fs.FS, name string) (map[string]any, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return out, nil
}

// readOverride loads the first of <stage>.yaml, <stage>.yml, <stage>.json.
// JSON is parsed by the YAML decoder.
func readOverride(dir, stage string) (map[string]any, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		out, err := readYAML(os.DirFS(dir), stage+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", filepath.Join(dir, stage+ext), err)
		}
		return out, nil
	}
	return nil, nil
}

func deepMerge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(cur, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}
