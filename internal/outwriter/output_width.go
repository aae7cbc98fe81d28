package outwriter

import (
	"os"

	"github.com/huangsam/firewatch/internal/contract"
	"golang.org/x/term"
)

// readingsBaseWidth reserves ID + Device + Time + four signals + Score + Level
// with borders and padding.
const readingsBaseWidth = 95

// GetMaxTableFactorWidth calculates the maximum width for the risk factors column
// in table output based on terminal width.
func GetMaxTableFactorWidth(cfg *contract.Config) int {
	termWidth := cfg.Width

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - readingsBaseWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}
