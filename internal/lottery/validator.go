package lottery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/atmx/bingo-engine/internal/drawid"
	"github.com/atmx/bingo-engine/internal/model"
)

// BetRequest is the JSON body for POST /settle. Span and multiplier are
// capped here to bound the work of a single request.
type BetRequest struct {
	Mode        string `json:"mode" validate:"required,oneof=star_pick size_guess parity_guess"`
	Stars       int    `json:"stars" validate:"omitempty,min=1,max=10"`
	Numbers     []int  `json:"numbers" validate:"omitempty,max=10,dive,min=1,max=80"`
	Choice      string `json:"choice" validate:"omitempty,max=16"`
	Multiplier  int    `json:"multiplier" validate:"required,min=1,max=10000"`
	DrawSpan    int    `json:"draw_span" validate:"required,min=1,max=1000"`
	StartDrawID string `json:"start_draw_id" validate:"required,drawid"`
	BonusActive *bool  `json:"bonus_active"` // nil uses the configured default
}

// Spec converts the request into the engine's bet type.
func (b BetRequest) Spec() model.BetSpec {
	return model.BetSpec{
		Mode:        model.BetMode(b.Mode),
		Stars:       b.Stars,
		Numbers:     b.Numbers,
		Choice:      b.Choice,
		Multiplier:  b.Multiplier,
		DrawSpan:    b.DrawSpan,
		StartDrawID: strings.TrimSpace(b.StartDrawID),
	}
}

// TicketRequest is the JSON body for POST /tickets and PUT /tickets/{id}.
type TicketRequest struct {
	Label string     `json:"label" validate:"max=100"`
	Bet   BetRequest `json:"bet"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("drawid", validateDrawID)
	return v
}

func validateDrawID(fl validator.FieldLevel) bool {
	_, err := drawid.Parse(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// validationMessage turns validator errors into one readable line without
// leaking Go field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}

	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := jsonName(e.Namespace())
		switch e.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", field, e.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "drawid":
			parts = append(parts, field+" must be a numeric draw id")
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

var fieldNames = map[string]string{
	"Mode":        "mode",
	"Stars":       "stars",
	"Numbers":     "numbers",
	"Choice":      "choice",
	"Multiplier":  "multiplier",
	"DrawSpan":    "draw_span",
	"StartDrawID": "start_draw_id",
	"Label":       "label",
	"Bet":         "bet",
}

// jsonName maps "TicketRequest.Bet.Numbers[2]" to "bet.numbers[2]".
func jsonName(namespace string) string {
	segs := strings.Split(namespace, ".")
	if len(segs) > 1 {
		segs = segs[1:]
	}
	for i, seg := range segs {
		name, index, _ := strings.Cut(seg, "[")
		if mapped, ok := fieldNames[name]; ok {
			name = mapped
		}
		if index != "" {
			name += "[" + index
		}
		segs[i] = name
	}
	return strings.Join(segs, ".")
}
