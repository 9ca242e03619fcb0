package blueprint

import (
	"encoding/json"
)

// EncodeOptionsKey serializes a PrintOptions record into its cache key.
// The encoding is order-independent: fields are placed into maps and
// marshaled with encoding/json, which writes map keys sorted, so records
// that are field-wise equal encode byte-identically no matter how they
// were assembled. Unset optionals encode as explicit null, keeping the
// encoding injective.
//
// An encoding failure is a programming error, surfaced as KindEncoding and
// never masked by callers.
func EncodeOptionsKey(opts PrintOptions) (string, error) {
	fields := map[string]any{
		"imageArea":      imageAreaFields(opts.ImageArea),
		"side":           string(opts.Side),
		"sizingMode":     string(opts.SizingMode),
		"specificWidth":  nullableFloat(opts.SpecificWidth),
		"specificHeight": nullableFloat(opts.SpecificHeight),
		"specificDpi":    nullableInt(opts.SpecificDPI),
		"paperWidth":     opts.PaperWidth,
		"preview":        opts.Preview,
		"print":          opts.Print,
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", NewError(KindEncoding, "options record is not serializable", err)
	}
	return string(raw), nil
}

func imageAreaFields(area ImageArea) map[string]any {
	return map[string]any{
		"topLeft":     pointFields(area.TopLeft),
		"topRight":    pointFields(area.TopRight),
		"bottomLeft":  pointFields(area.BottomLeft),
		"bottomRight": pointFields(area.BottomRight),
	}
}

func pointFields(p Point) map[string]any {
	return map[string]any{"x": p.X, "y": p.Y}
}

func nullableFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
