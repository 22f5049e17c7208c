// Package config turns the command line and the TOML config files into a
// validated control.Config.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/thtrack/internal/control"
	"github.com/soar/thtrack/internal/psmove"
	"github.com/soar/thtrack/internal/uinput"
)

const (
	DefaultConfigFile = "config/default.toml"
	DefaultConfigDir  = "config"
	envPrefix         = "THTRACK"
)

var ErrMissingKey = errors.New("missing config key")

// Options are the command line settings.
type Options struct {
	ConfigFile string
	ConfigDir  string
	Monitor    string
	Tray       bool
	Sink       string
	Mem        string
	Device     string
	SmartShot  string
	Verbose    bool
	// Process is the positional pid or process name of the game.
	Process string

	flags *pflag.FlagSet
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Options, error) {
	o := &Options{}
	fs := pflag.NewFlagSet("thtrack", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: thtrack [flags] <pid|process-name>\n\n")
		fmt.Fprintf(os.Stderr, "Reads PS Move tracker lines on stdin and drives the game with a virtual keyboard.\n\n")
		fs.PrintDefaults()
	}
	fs.StringVarP(&o.ConfigFile, "config", "c", DefaultConfigFile, "path to the config file")
	fs.StringVar(&o.ConfigDir, "config-dir", DefaultConfigDir, "directory holding per-game <game>.toml overlays")
	fs.StringVar(&o.Monitor, "monitor", "", "serve the live monitor on this address, e.g. :8080")
	fs.BoolVar(&o.Tray, "tray", false, "show a system tray icon")
	fs.StringVar(&o.Sink, "sink", "uinput", "key event backend: uinput or keyboard")
	fs.StringVar(&o.Mem, "mem", "procfs", "process memory reader: procfs or vm")
	fs.StringVar(&o.Device, "device", uinput.DefaultPath, "uinput device path")
	fs.StringVar(&o.SmartShot, "smart-shot", "", "override game.smart_shot: none, reverse or toggle")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "log every frame")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one game process id/name")
	}
	o.Process = fs.Arg(0)
	o.flags = fs
	return o, nil
}

// Settings is everything the process needs besides the command line.
type Settings struct {
	Remap   control.Config
	Address uint64
}

var defaultKeys = map[string]string{
	control.ActionShot:  "KEY_Z",
	control.ActionBomb:  "KEY_X",
	control.ActionFocus: "KEY_LEFTSHIFT",
	control.ActionSkip:  "KEY_LEFTCTRL",
	control.ActionPause: "KEY_ESC",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault("game.smart_shot", "none")
	v.SetDefault("controller.clamp", true)
	v.SetDefault("controller.nav_toggle", "START")
	for action, key := range defaultKeys {
		v.SetDefault("keys."+action, key)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the base config file, merges the overlay for game when one
// exists in the config dir, and validates the result.
func Load(o *Options, game string) (*Settings, error) {
	v := newViper()

	v.SetConfigFile(o.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", o.ConfigFile, err)
	}
	log.Printf("Reading config file %s", o.ConfigFile)

	if game != "" {
		overlay := filepath.Join(o.ConfigDir, game+".toml")
		if _, err := os.Stat(overlay); err == nil {
			v.SetConfigFile(overlay)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", overlay, err)
			}
			log.Printf("Merged game config %s", overlay)
		}
	}

	if o.flags != nil {
		if f := o.flags.Lookup("smart-shot"); f != nil && f.Changed {
			if err := v.BindPFlag("game.smart_shot", f); err != nil {
				return nil, err
			}
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	required := []string{
		"game.addr_x", "game.precision_normal", "game.precision_focus",
		"game.min_x", "game.max_x", "game.min_y", "game.max_y",
		"controller.min_x", "controller.max_x", "controller.min_y", "controller.max_y",
	}
	for _, action := range control.ActionNames {
		required = append(required, "buttons."+action)
	}
	for _, key := range required {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}

	addr, err := parseAddress(v.Get("game.addr_x"))
	if err != nil {
		return nil, fmt.Errorf("game.addr_x: %w", err)
	}

	smart, err := control.ParseSmartShot(v.GetString("game.smart_shot"))
	if err != nil {
		return nil, fmt.Errorf("game.smart_shot: %w", err)
	}
	toggle, err := psmove.ParseButton(v.GetString("controller.nav_toggle"))
	if err != nil {
		return nil, fmt.Errorf("controller.nav_toggle: %w", err)
	}

	cfg := control.Config{
		Controller: area(v, "controller"),
		Game:       area(v, "game"),
		Clamp:      v.GetBool("controller.clamp"),

		PrecisionNormal: v.GetFloat64("game.precision_normal"),
		PrecisionFocus:  v.GetFloat64("game.precision_focus"),

		Arrows: control.ArrowKeys{
			Right: uinput.KeyRight,
			Up:    uinput.KeyUp,
			Left:  uinput.KeyLeft,
			Down:  uinput.KeyDown,
		},
		SmartShot: smart,
		NavToggle: toggle,
	}

	for _, action := range control.ActionNames {
		button, err := psmove.ParseButton(v.GetString("buttons." + action))
		if err != nil {
			return nil, fmt.Errorf("buttons.%s: %w", action, err)
		}
		key, err := uinput.ParseKey(v.GetString("keys." + action))
		if err != nil {
			return nil, fmt.Errorf("keys.%s: %w", action, err)
		}
		cfg.Actions = append(cfg.Actions, control.Action{Name: action, Button: button, Key: key})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Settings{Remap: cfg, Address: addr}, nil
}

func area(v *viper.Viper, section string) control.Area {
	return control.Area{
		X: control.Range{Min: v.GetFloat64(section + ".min_x"), Max: v.GetFloat64(section + ".max_x")},
		Y: control.Range{Min: v.GetFloat64(section + ".min_y"), Max: v.GetFloat64(section + ".max_y")},
	}
}

// parseAddress accepts a TOML integer or a hex string with or without 0x.
func parseAddress(raw any) (uint64, error) {
	switch a := raw.(type) {
	case string:
		s := strings.TrimSpace(a)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		return strconv.ParseUint(s, 16, 64)
	case int64:
		if a < 0 {
			return 0, fmt.Errorf("negative address %d", a)
		}
		return uint64(a), nil
	case int:
		if a < 0 {
			return 0, fmt.Errorf("negative address %d", a)
		}
		return uint64(a), nil
	case uint64:
		return a, nil
	}
	return 0, fmt.Errorf("unsupported address value %v (%T)", raw, raw)
}

// Describe logs the effective settings, one line per entry.
func (s *Settings) Describe() {
	c := s.Remap
	log.Printf("addr_x = 0x%x", s.Address)
	log.Printf("game area = x[%g, %g] y[%g, %g]", c.Game.X.Min, c.Game.X.Max, c.Game.Y.Min, c.Game.Y.Max)
	log.Printf("controller area = x[%g, %g] y[%g, %g] clamp=%v", c.Controller.X.Min, c.Controller.X.Max, c.Controller.Y.Min, c.Controller.Y.Max, c.Clamp)
	log.Printf("precision = normal %g, focus %g", c.PrecisionNormal, c.PrecisionFocus)
	log.Printf("smart_shot = %s, nav_toggle = %s", c.SmartShot, c.NavToggle)
	for _, a := range c.Actions {
		log.Printf("%s = %s -> %s", a.Name, a.Button, uinput.KeyName(a.Key))
	}
}
