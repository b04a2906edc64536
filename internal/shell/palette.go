package shell

import "github.com/fatih/color"

type palette struct {
	prompt  *color.Color // green bold
	student *color.Color // cyan bold
	bold    *color.Color
}

// newPalette leaves colour detection to fatih/color unless disabled.
func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if !enabled {
			c.DisableColor()
		}
		return c
	}
	return palette{
		prompt:  mk(color.FgGreen, color.Bold),
		student: mk(color.FgCyan, color.Bold),
		bold:    mk(color.Bold),
	}
}
