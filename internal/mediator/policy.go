package mediator

import "fmt"

// Band is the qualitative intervention-frequency band derived from a 1-10
// interaction level.
type Band string

const (
	BandMinimal       Band = "MINIMAL"
	BandLow           Band = "LOW"
	BandBalanced      Band = "BALANCED"
	BandActive        Band = "ACTIVE"
	BandVeryDirective Band = "VERY_DIRECTIVE"
)

// ClampLevel brings an interaction level into [1,10]. Out-of-range input is
// clamped, never rejected.
func ClampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 10 {
		return 10
	}
	return level
}

// BandForLevel maps an interaction level to its band. Total: clamps first.
func BandForLevel(level int) Band {
	switch ClampLevel(level) {
	case 1, 2:
		return BandMinimal
	case 3, 4:
		return BandLow
	case 5, 6:
		return BandBalanced
	case 7, 8:
		return BandActive
	default:
		return BandVeryDirective
	}
}

// Guidance returns the natural-language directive injected verbatim into the
// ongoing-analysis prompt for the given level.
func Guidance(level int) string {
	level = ClampLevel(level)
	switch BandForLevel(level) {
	case BandMinimal:
		return fmt.Sprintf("INTERACTION LEVEL: MINIMAL (%d/10). Stay almost completely silent. Only intervene for serious fallacies or personal attacks. Let them work it out.", level)
	case BandLow:
		return fmt.Sprintf("INTERACTION LEVEL: LOW (%d/10). Intervene sparingly — only for clear fallacies, constitution violations, or sharp escalation. No reframes or observations unless critical.", level)
	case BandBalanced:
		return fmt.Sprintf("INTERACTION LEVEL: BALANCED (%d/10). Intervene when genuinely helpful — fallacies, escalation, good reframing opportunities. Don't comment on every message.", level)
	case BandActive:
		return fmt.Sprintf("INTERACTION LEVEL: ACTIVE (%d/10). Be more engaged — offer reflections ('What I heard you say is...'), reframes, encouragement. Actively facilitate the discussion. Call out smaller issues too.", level)
	default:
		return fmt.Sprintf("INTERACTION LEVEL: VERY DIRECTIVE (%d/10). Actively mediate like a counselor. Summarize each person's points. Ask clarifying questions. Guide the conversation structure. Suggest next topics. Offer 'What I Heard' reflections frequently.", level)
	}
}

// EffectiveLevel picks the activity level for a session: the higher of the
// two preferences, so either participant opting into more help raises the
// mediator's activity for both.
func EffectiveLevel(levelA, levelB int) int {
	a, b := ClampLevel(levelA), ClampLevel(levelB)
	if a > b {
		return a
	}
	return b
}
