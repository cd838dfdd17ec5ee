package accommodation

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindRoom Kind = "room"
	KindBed  Kind = "bed"
)

// ParseKind accepts the English and Portuguese spellings used by the PMS.
func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "room", "quarto":
		return KindRoom, true
	case "bed", "cama", "leito":
		return KindBed, true
	default:
		return "", false
	}
}

// Ref points at an accommodation owned by the PMS.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) IsZero() bool { return r.Kind == "" && r.ID == "" }

// Token renders the "kind:id" selection token used by forms.
func (r Ref) Token() string {
	if r.IsZero() {
		return ""
	}
	return string(r.Kind) + ":" + r.ID
}

// ParseSelection splits a "kind:id" token. Both parts must be present.
func ParseSelection(token string) (Ref, bool) {
	rawKind, id, ok := strings.Cut(strings.TrimSpace(token), ":")
	if !ok {
		return Ref{}, false
	}
	kind, ok := ParseKind(rawKind)
	if !ok {
		return Ref{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Ref{}, false
	}
	return Ref{Kind: kind, ID: id}, true
}

// Option is the read-only projection of a bookable room or bed.
type Option struct {
	ID    string
	Kind  Kind
	Label string
	Rate  decimal.Decimal
}

func (o Option) Ref() Ref { return Ref{Kind: o.Kind, ID: o.ID} }
