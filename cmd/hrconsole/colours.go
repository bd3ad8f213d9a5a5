package main

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	GreenInverse = "\033[7;32m"

	ResetColor = "\033[0m" // Reset to default color
)

var statusColours = map[string]string{
	"present":  Green,
	"late":     Yellow,
	"absent":   Red,
	"pending":  Yellow,
	"approved": Green,
	"rejected": Red,
	"active":   Green,
	"inactive": Gray,
}

// paint wraps s in colour unless colours are disabled
func (a *app) paint(colour, s string) string {
	if a.noColour || colour == "" {
		return s
	}
	return colour + s + ResetColor
}

func (a *app) status(s string) string {
	return a.paint(statusColours[s], s)
}
