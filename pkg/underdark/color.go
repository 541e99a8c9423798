package underdark

import "fmt"

// Color identifies who occupies a node or owns a spy.
type Color string

const (
	ColorNone Color = ""
	Neutral   Color = "neutral"
	Red       Color = "red"
	Blue      Color = "blue"
	Green     Color = "green"
	Yellow    Color = "yellow"
)

// PlayerColors returns the seatable colors in standard order.
func PlayerColors() []Color {
	return []Color{Red, Blue, Green, Yellow}
}

// IsPlayer reports whether c belongs to a seated player.
func (c Color) IsPlayer() bool {
	return c != ColorNone && c != Neutral
}

func (c Color) String() string {
	if c == ColorNone {
		return "none"
	}
	return string(c)
}

// Resource is a player counter that rewards and effects can change.
type Resource int

const (
	Power Resource = iota
	Influence
	VictoryPoints
)

func (r Resource) String() string {
	switch r {
	case Power:
		return "power"
	case Influence:
		return "influence"
	case VictoryPoints:
		return "victory_points"
	default:
		return "unknown"
	}
}

// MatchPhase changes deployment legality for the whole board.
type MatchPhase int

const (
	Setup MatchPhase = iota
	Playing
)

func (p MatchPhase) String() string {
	if p == Setup {
		return "setup"
	}
	return "playing"
}

// textEnum is an int enum whose String form is also its wire form.
type textEnum interface {
	~int
	String() string
}

// parseEnum returns the value below end whose String is text.
func parseEnum[T textEnum](kind string, text []byte, end T) (T, error) {
	for v := T(0); v < end; v++ {
		if v.String() == string(text) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, text)
}

func (r Resource) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Resource) UnmarshalText(text []byte) (err error) {
	*r, err = parseEnum("resource", text, VictoryPoints+1)
	return err
}

func (p MatchPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *MatchPhase) UnmarshalText(text []byte) (err error) {
	*p, err = parseEnum("phase", text, Playing+1)
	return err
}

func (k SiteKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *SiteKind) UnmarshalText(text []byte) (err error) {
	*k, err = parseEnum("site kind", text, Starting+1)
	return err
}

func (e EffectType) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *EffectType) UnmarshalText(text []byte) (err error) {
	*e, err = parseEnum("effect", text, EffectDevour+1)
	return err
}
