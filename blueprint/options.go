package blueprint

import (
	"fmt"
)

// DefaultPanelState returns the control state the option panel starts from.
func DefaultPanelState() PanelState {
	return PanelState{
		Side:       SideLong,
		SizingMode: SizingMaxSize,
		PaperWidth: 36,
		DPI:        300,
	}
}

// BuildOptions produces a canonical PrintOptions record from control state.
// Pure function: numeric fields are clamped to their declared bounds and
// truncated to integers, a sentinel zero maps to unset, and fields that do
// not belong to the selected sizing mode are zeroed so two panels that
// differ only in inactive controls build the same record.
func BuildOptions(panel PanelState) PrintOptions {
	opts := PrintOptions{
		ImageArea:  panel.ImageArea,
		Side:       panel.Side,
		SizingMode: panel.SizingMode,
		PaperWidth: panel.PaperWidth,
		Preview:    true,
	}

	if opts.Side == "" {
		opts.Side = SideLong
	}
	if opts.SizingMode == "" {
		opts.SizingMode = SizingMaxSize
	}
	if opts.PaperWidth == 0 {
		opts.PaperWidth = 36
	}

	switch opts.SizingMode {
	case SizingSpecificSize:
		opts.SpecificWidth = float64(boundedInt(panel.WidthInches, MinDimensionInches, MaxDimensionInches))
		opts.SpecificHeight = float64(boundedInt(panel.HeightInches, MinDimensionInches, MaxDimensionInches))
	case SizingSpecificDPI:
		if panel.DPI != 0 {
			opts.SpecificDPI = boundedInt(panel.DPI, MinDPI, MaxDPI)
		}
	}

	return opts
}

// boundedInt clamps raw into [min, max] and truncates to an integer. A raw
// zero is the unset sentinel and passes through untouched.
func boundedInt(raw, min, max float64) int {
	if raw == 0 {
		return 0
	}
	if raw < min {
		raw = min
	}
	if raw > max {
		raw = max
	}
	return int(raw)
}

// Validate checks the record against the sizing-mode consistency invariant:
// exactly the fields of the selected mode are populated.
func (o PrintOptions) Validate() error {
	switch o.Side {
	case SideShort, SideLong:
	default:
		return NewError(KindValidation, fmt.Sprintf("unknown side %q", o.Side), nil)
	}

	if !ValidPaperWidth(o.PaperWidth) {
		return NewError(KindValidation, fmt.Sprintf("paper width %d not supported", o.PaperWidth), nil)
	}

	switch o.SizingMode {
	case SizingMaxSize:
		if o.SpecificWidth != 0 || o.SpecificHeight != 0 || o.SpecificDPI != 0 {
			return NewError(KindValidation, "max-size mode takes no specific dimensions or DPI", nil)
		}
	case SizingSpecificSize:
		if o.SpecificDPI != 0 {
			return NewError(KindValidation, "specific-size mode takes no DPI", nil)
		}
		if o.SpecificWidth == 0 && o.SpecificHeight == 0 {
			return NewError(KindValidation, "specific-size mode needs a width or a height", nil)
		}
		if o.SpecificWidth < 0 || o.SpecificHeight < 0 {
			return NewError(KindValidation, "dimensions must be positive", nil)
		}
	case SizingSpecificDPI:
		if o.SpecificWidth != 0 || o.SpecificHeight != 0 {
			return NewError(KindValidation, "specific-DPI mode takes no dimensions", nil)
		}
		if o.SpecificDPI < MinDPI || o.SpecificDPI > MaxDPI {
			return NewError(KindValidation, fmt.Sprintf("DPI %d outside [%d, %d]", o.SpecificDPI, MinDPI, MaxDPI), nil)
		}
	default:
		return NewError(KindValidation, fmt.Sprintf("unknown sizing mode %q", o.SizingMode), nil)
	}

	return nil
}
