package types

import "strings"

// ConfigChanges is a bitmask of configuration fields that changed.
type ConfigChanges uint32

const (
	ConfigOrientation ConfigChanges = 1 << iota
	ConfigLocale
	ConfigFontScale
	ConfigScreenSize
	ConfigKeyboard
	ConfigUIMode
	ConfigDensity
)

var configNames = []struct {
	bit  ConfigChanges
	name string
}{
	{ConfigOrientation, "orientation"},
	{ConfigLocale, "locale"},
	{ConfigFontScale, "fontScale"},
	{ConfigScreenSize, "screenSize"},
	{ConfigKeyboard, "keyboard"},
	{ConfigUIMode, "uiMode"},
	{ConfigDensity, "density"},
}

// Has reports whether every bit of other is set.
func (c ConfigChanges) Has(other ConfigChanges) bool {
	return c&other == other
}

func (c ConfigChanges) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range configNames {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// ParseConfigChanges maps names back to a mask; unknown names are ignored.
func ParseConfigChanges(names []string) ConfigChanges {
	var c ConfigChanges
	for _, name := range names {
		for _, n := range configNames {
			if strings.EqualFold(name, n.name) {
				c |= n.bit
			}
		}
	}
	return c
}
