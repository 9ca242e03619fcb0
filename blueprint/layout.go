package blueprint

import (
	"fmt"
	"math"
)

// Layout is the physical print placement derived from a source image and a
// PrintOptions record: final size in inches, effective DPI, and whether the
// image had to be rotated to fit the roll.
type Layout struct {
	WidthInches  float64  `json:"width_inches"`
	HeightInches float64  `json:"height_inches"`
	DPI          int      `json:"dpi"`
	Rotated      bool     `json:"rotated"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ComputeLayout derives the print layout for an image of pxWidth x pxHeight
// pixels. Width always means the dimension across the paper; the side option
// decides which image side that is. The roll caps prints at MaxRollInches.
func ComputeLayout(opts PrintOptions, pxWidth, pxHeight int) (Layout, error) {
	if err := opts.Validate(); err != nil {
		return Layout{}, err
	}
	if pxWidth <= 0 || pxHeight <= 0 {
		return Layout{}, NewError(KindValidation, fmt.Sprintf("image has no pixels (%dx%d)", pxWidth, pxHeight), nil)
	}

	acrossPx, alongPx := orientPixels(pxWidth, pxHeight, opts.Side)
	paper := float64(opts.PaperWidth)

	var layout Layout
	switch opts.SizingMode {
	case SizingMaxSize:
		dpi := acrossPx / paper
		layout = Layout{
			WidthInches:  paper,
			HeightInches: alongPx / dpi,
			DPI:          truncDPI(dpi),
		}

	case SizingSpecificSize:
		layout = specificSizeLayout(opts, acrossPx, alongPx, paper)

	case SizingSpecificDPI:
		dpi := float64(opts.SpecificDPI)
		layout = Layout{
			WidthInches:  acrossPx / dpi,
			HeightInches: alongPx / dpi,
			DPI:          opts.SpecificDPI,
		}
		if layout.WidthInches > paper {
			layout.WidthInches, layout.HeightInches = layout.HeightInches, layout.WidthInches
			layout.Rotated = true
		}
	}

	if layout.WidthInches > paper {
		return Layout{}, NewError(KindValidation,
			fmt.Sprintf("print is %.1f inches wide but the roll is %d inches", layout.WidthInches, opts.PaperWidth), nil)
	}
	if layout.HeightInches > MaxRollInches {
		return Layout{}, NewError(KindValidation,
			fmt.Sprintf("print is %.1f inches long but the roll supports %d inches", layout.HeightInches, MaxRollInches), nil)
	}
	if layout.DPI < LowDPIWarning {
		layout.Warnings = append(layout.Warnings,
			fmt.Sprintf("print quality may be poor below %d DPI", LowDPIWarning))
	}
	return layout, nil
}

func specificSizeLayout(opts PrintOptions, acrossPx, alongPx, paper float64) Layout {
	width := opts.SpecificWidth
	height := opts.SpecificHeight

	switch {
	case width > 0 && height > 0:
		dpi := math.Max(acrossPx/width, alongPx/height)
		return Layout{WidthInches: width, HeightInches: height, DPI: truncDPI(dpi)}

	case width > 0:
		dpi := acrossPx / width
		return Layout{WidthInches: width, HeightInches: alongPx / dpi, DPI: truncDPI(dpi)}

	default:
		dpi := alongPx / height
		layout := Layout{WidthInches: acrossPx / dpi, HeightInches: height, DPI: truncDPI(dpi)}
		if layout.WidthInches > paper {
			layout.WidthInches, layout.HeightInches = layout.HeightInches, layout.WidthInches
			layout.Rotated = true
		}
		return layout
	}
}

// orientPixels maps the image's pixel sides onto (across the paper, along
// the roll) per the side option.
func orientPixels(pxWidth, pxHeight int, side Side) (acrossPx, alongPx float64) {
	long := math.Max(float64(pxWidth), float64(pxHeight))
	short := math.Min(float64(pxWidth), float64(pxHeight))
	if side == SideShort {
		return short, long
	}
	return long, short
}

func truncDPI(dpi float64) int {
	if dpi < 1 {
		return 1
	}
	return int(dpi)
}
