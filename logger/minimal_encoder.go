package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI colors of one console theme
type palette struct {
	fg        string
	time      string
	component string
	id        string
	number    string
	symbol    string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var themes = map[string]palette{
	"everforest": {
		fg:        "\x1b[38;5;223m",
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;208m",
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;108m",
		symbol:    "\x1b[38;5;108m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
	"gruvbox": {
		fg:        "\x1b[38;5;223m",
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;214m",
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;175m",
		symbol:    "\x1b[38;5;142m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
}

// Current active theme (set by SetTheme or ATOMSPACE_LOG_THEME)
var currentTheme = "everforest"

// SetTheme configures the color scheme for console output.
// Unknown themes are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// idFields are rendered in the id color; numeric fields in the number color.
var idFields = map[string]bool{
	FieldAtomID: true,
	FieldRule:   true,
	FieldRunID:  true,
	FieldTaskID: true,
}

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  p.engine  ⊢ Inference step complete  step=2 derived=4"
//
// Fields attached with logger.With() are accumulated in the embedded map
// encoder and rendered together with per-entry fields, so nothing is dropped.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := buffer.NewPool().Get()

	all := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		all.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(all)
	}

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: hidden for info
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level, c))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(c.component)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	if symbol, ok := all.Fields[FieldSymbol].(string); ok && symbol != "" {
		final.AppendString(c.symbol)
		final.AppendString(symbol)
		final.AppendString(colorReset)
		final.AppendString(" ")
		delete(all.Fields, FieldSymbol)
	}
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if rendered := renderFields(all.Fields, c); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for non-info levels
func levelColorString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + c.errBg + c.err + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
	default:
		return level.CapitalString()
	}
}

// abbreviateName shortens component names: pln.engine -> p.engine
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// renderFields prints every field as key=value, sorted by key
func renderFields(fields map[string]interface{}, c palette) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		color := c.fg
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			color = c.number
		}
		if idFields[k] {
			color = c.id
		}
		parts = append(parts, fmt.Sprintf("%s=%s%v%s", k, color, v, colorReset))
	}
	return strings.Join(parts, " ")
}
