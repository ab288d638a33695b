package eval

// SecLevel is the two-point security lattice tagging every value with
// whether it is known to all participants or only to one.
type SecLevel int

const (
	// Public is known to every participant. Identity of Meet.
	Public SecLevel = iota

	// Secret is known to a single participant. Absorbing under Meet.
	Secret
)

func (l SecLevel) String() string {
	if l == Secret {
		return "secret"
	}
	return "public"
}

// Meet combines two levels, taking the least informative: Secret
// dominates Public.
func Meet(a, b SecLevel) SecLevel {
	if a == Secret || b == Secret {
		return Secret
	}
	return Public
}

// MeetAll folds Meet over levels with Public as the identity.
func MeetAll(levels ...SecLevel) SecLevel {
	out := Public
	for _, l := range levels {
		out = Meet(out, l)
	}
	return out
}
