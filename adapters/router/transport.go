package printrouter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/goliatone/go-router"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// panelPayload is the wire form of the panel controls. Field names match
// the renderer option names so the UI speaks one vocabulary.
type panelPayload struct {
	ImageArea    *blueprint.ImageArea `json:"imageArea,omitempty"`
	Side         string               `json:"side,omitempty"`
	SizingMode   string               `json:"sizingMode,omitempty"`
	PaperWidth   int                  `json:"paperWidth,omitempty"`
	WidthInches  float64              `json:"widthInches,omitempty"`
	HeightInches float64              `json:"heightInches,omitempty"`
	DPI          float64              `json:"dpi,omitempty"`
}

func (p panelPayload) toState() blueprint.PanelState {
	state := blueprint.PanelState{
		Side:         blueprint.Side(p.Side),
		SizingMode:   blueprint.SizingMode(p.SizingMode),
		PaperWidth:   p.PaperWidth,
		WidthInches:  p.WidthInches,
		HeightInches: p.HeightInches,
		DPI:          p.DPI,
	}
	if p.ImageArea != nil {
		state.ImageArea = *p.ImageArea
	}
	return state
}

func statePayload(state blueprint.PanelState) panelPayload {
	payload := panelPayload{
		Side:         string(state.Side),
		SizingMode:   string(state.SizingMode),
		PaperWidth:   state.PaperWidth,
		WidthInches:  state.WidthInches,
		HeightInches: state.HeightInches,
		DPI:          state.DPI,
	}
	if state.ImageArea != (blueprint.ImageArea{}) {
		area := state.ImageArea
		payload.ImageArea = &area
	}
	return payload
}

// optionsFromBody decodes explicit options from the request body. An empty
// body or empty object defers to the panel.
func optionsFromBody(c router.Context) (*blueprint.PrintOptions, error) {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) || bytes.Equal(body, []byte("{}")) {
		return nil, nil
	}

	var payload panelPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, blueprint.NewError(blueprint.KindValidation, "options payload is invalid", err)
	}
	opts := blueprint.BuildOptions(payload.toState())
	return &opts, nil
}

func parseHistoryTime(raw string) (time.Time, bool) {
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func writeError(c router.Context, err error) error {
	return c.JSON(statusForKind(blueprint.KindFromError(err)), map[string]any{
		"error": errorBody(err),
	})
}

func errorBody(err error) map[string]any {
	ge := blueprint.AsGoError(err)
	return map[string]any{
		"message":      ge.Message,
		"code":         ge.TextCode,
		"user_message": blueprint.UserMessage(err),
	}
}

// statusForKind maps workflow error kinds onto HTTP statuses.
func statusForKind(kind blueprint.ErrorKind) int {
	switch kind {
	case blueprint.KindValidation, blueprint.KindEncoding:
		return http.StatusBadRequest
	case blueprint.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case blueprint.KindUnauthorized:
		return http.StatusUnauthorized
	case blueprint.KindNotFound:
		return http.StatusNotFound
	case blueprint.KindConflict, blueprint.KindCanceled:
		return http.StatusConflict
	case blueprint.KindQuota:
		return http.StatusTooManyRequests
	case blueprint.KindExternal:
		return http.StatusBadGateway
	case blueprint.KindTimeout:
		return http.StatusGatewayTimeout
	case blueprint.KindNotImpl:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
