package config

import "sort"

// Presets are named adjustments applied over DefaultConfig.
var Presets = map[string]func(*Config){
	"published": func(c *Config) {},
	"preview": func(c *Config) {
		c.Grid.Size = 24
		c.Output.DPI = 72
	},
	"coarse": func(c *Config) {
		c.Grid.Size = 60
		c.Output.DPI = 100
	},
	"fine": func(c *Config) {
		c.Grid.Size = 400
	},
	"weathering-fast": func(c *Config) {
		c.Params.R = 300e-6
	},
	"glucose-poor": func(c *Config) {
		c.Params.G0 = 0.09
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
