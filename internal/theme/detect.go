package theme

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

// Detect loads the first terminal palette found, then applies env overrides.
func Detect() Palette {
	home, err := os.UserHomeDir()
	if err != nil {
		return applyEnvOverrides(DefaultPalette())
	}
	return applyEnvOverrides(detectIn(home))
}

func detectIn(home string) Palette {
	cfg := filepath.Join(home, ".config")

	for _, path := range []string{
		filepath.Join(cfg, "alacritty", "alacritty.toml"),
		filepath.Join(home, ".alacritty.toml"),
	} {
		if p, ok := parseAlacrittyTOML(path); ok {
			return p
		}
	}
	if p, ok := parseKittyConf(filepath.Join(cfg, "kitty", "kitty.conf")); ok {
		return p
	}
	if p, ok := parseFootINI(filepath.Join(cfg, "foot", "foot.ini")); ok {
		return p
	}
	return DefaultPalette()
}

// WatchPaths lists the terminal config directories worth watching for theme
// changes.
func WatchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "alacritty"),
		filepath.Join(home, ".config", "kitty"),
		filepath.Join(home, ".config", "foot"),
	}
}

type alacrittyColors struct {
	Colors struct {
		Primary struct {
			Background string `toml:"background"`
			Foreground string `toml:"foreground"`
		} `toml:"primary"`
		Selection struct {
			Background string `toml:"background"`
		} `toml:"selection"`
		Normal struct {
			Red    string `toml:"red"`
			Green  string `toml:"green"`
			Yellow string `toml:"yellow"`
		} `toml:"normal"`
	} `toml:"colors"`
}

func parseAlacrittyTOML(path string) (Palette, bool) {
	var cfg alacrittyColors
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Palette{}, false
	}
	c := cfg.Colors
	if c.Primary.Background == "" || c.Primary.Foreground == "" {
		return Palette{}, false
	}

	p := fromPrimary(c.Primary.Background, c.Primary.Foreground, c.Selection.Background)
	if c.Normal.Green != "" {
		p.Accent = normalizeHex(c.Normal.Green)
	}
	if c.Normal.Yellow != "" {
		p.Warn = normalizeHex(c.Normal.Yellow)
	}
	if c.Normal.Red != "" {
		p.Error = normalizeHex(c.Normal.Red)
	}
	return p, true
}

func parseKittyConf(path string) (Palette, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, false
	}

	kv := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		kv[fields[0]] = fields[1]
	}

	if kv["background"] == "" || kv["foreground"] == "" {
		return Palette{}, false
	}
	p := fromPrimary(kv["background"], kv["foreground"], kv["selection_background"])
	if v := kv["color2"]; v != "" {
		p.Accent = normalizeHex(v)
	}
	if v := kv["color1"]; v != "" {
		p.Error = normalizeHex(v)
	}
	return p, true
}

func parseFootINI(path string) (Palette, bool) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Palette{}, false
	}

	colors := cfg.Section("colors")
	bg := colors.Key("background").String()
	fg := colors.Key("foreground").String()
	if bg == "" || fg == "" {
		return Palette{}, false
	}

	p := fromPrimary(bg, fg, colors.Key("selection-background").String())
	if v := colors.Key("regular2").String(); v != "" {
		p.Accent = normalizeHex(v)
	}
	if v := colors.Key("regular1").String(); v != "" {
		p.Error = normalizeHex(v)
	}
	return p, true
}

func fromPrimary(bg, fg, selection string) Palette {
	p := DefaultPalette()
	p.BG = normalizeHex(bg)
	p.FG = normalizeHex(fg)
	p.Muted = MixColors(p.BG, p.FG, 0.5)
	if selection != "" {
		p.AccentBg = normalizeHex(selection)
	} else {
		p.AccentBg = MixColors(p.BG, p.FG, 0.15)
	}
	return p
}

// applyEnvOverrides applies MAGNET_FINDER_* environment variables
func applyEnvOverrides(p Palette) Palette {
	for env, dst := range map[string]*string{
		"MAGNET_FINDER_BG":     &p.BG,
		"MAGNET_FINDER_FG":     &p.FG,
		"MAGNET_FINDER_MUTED":  &p.Muted,
		"MAGNET_FINDER_ACCENT": &p.Accent,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = normalizeHex(v)
		}
	}
	return p
}

var (
	hex6 = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	hex3 = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)
)

// normalizeHex converts 0xRRGGBB, RRGGBB and #RGB to #rrggbb. Anything else
// is returned unchanged.
func normalizeHex(color string) string {
	color = strings.Trim(strings.TrimSpace(color), `"'`)

	if strings.HasPrefix(color, "0x") || strings.HasPrefix(color, "0X") {
		color = "#" + color[2:]
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}

	switch {
	case hex6.MatchString(color):
		return strings.ToLower(color)
	case hex3.MatchString(color):
		r, g, b := color[1:2], color[2:3], color[3:4]
		return strings.ToLower("#" + r + r + g + g + b + b)
	}
	return color
}

// MixColors blends hex1 toward hex2 by t in [0,1].
func MixColors(hex1, hex2 string, t float64) string {
	hex1, hex2 = normalizeHex(hex1), normalizeHex(hex2)
	if !hex6.MatchString(hex1) || !hex6.MatchString(hex2) {
		return hex1
	}

	out := []byte{'#'}
	for i := 1; i < 7; i += 2 {
		a, b := hexByte(hex1[i:i+2]), hexByte(hex2[i:i+2])
		v := byte(float64(a)*(1-t) + float64(b)*t)
		out = append(out, hexDigits[v>>4], hexDigits[v&0x0f])
	}
	return string(out)
}

const hexDigits = "0123456789abcdef"

func hexByte(s string) byte {
	var v byte
	for _, c := range strings.ToLower(s) {
		v <<= 4
		v |= byte(strings.IndexRune(hexDigits, c))
	}
	return v
}
