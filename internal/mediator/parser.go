package mediator

import (
	"regexp"
	"strings"
)

// Decision is one parsed mediator judgment: what to say, under which kind,
// and to whom. Recipient empty means public.
type Decision struct {
	Kind      string
	Fallacy   string // empty = none flagged
	Recipient string // empty = public
	Content   string
}

const noInterventionSentinel = "[NO_INTERVENTION]"

// One lazy DOTALL pattern per tag: tag name, colon, shortest run up to the
// next ']'. RESPONSE bodies commonly embed newlines, hence (?s).
var (
	typeTag       = regexp.MustCompile(`(?s)\[TYPE:\s*(.+?)\]`)
	fallacyTag    = regexp.MustCompile(`(?s)\[FALLACY:\s*(.+?)\]`)
	visibilityTag = regexp.MustCompile(`(?s)\[VISIBILITY:\s*(.+?)\]`)
	responseTag   = regexp.MustCompile(`(?s)\[RESPONSE:\s*(.+?)\]`)
)

// ParseDecision turns a raw completion into a Decision, or nil when the
// model chose not to intervene. Parsing is total: malformed input degrades
// toward OBSERVATION/public/raw-text defaults, never an error. Recipients
// are only ever one of the two known participants; an unrecognized
// PRIVATE_TO_ target fails open to public.
func ParseDecision(raw, participantA, participantB string) *Decision {
	if strings.TrimSpace(raw) == "" || strings.Contains(raw, noInterventionSentinel) {
		return nil
	}

	kind := extractTag(typeTag, raw)
	fallacy := extractTag(fallacyTag, raw)
	visibility := extractTag(visibilityTag, raw)
	content := extractTag(responseTag, raw)

	if strings.TrimSpace(content) == "" {
		// Use the rest of the completion with the tags stripped out; if
		// that is blank too, keep the completion unmodified. A non-empty
		// completion never yields an empty decision body.
		content = raw
		for _, re := range []*regexp.Regexp{typeTag, fallacyTag, visibilityTag, responseTag} {
			content = re.ReplaceAllString(content, "")
		}
		content = strings.TrimSpace(content)
		if content == "" {
			content = raw
		}
	}

	if strings.EqualFold(fallacy, "NONE") {
		fallacy = ""
	}
	if kind == "" {
		kind = "OBSERVATION"
	}

	recipient := ""
	if vis := strings.TrimSpace(visibility); vis != "" {
		if strings.HasPrefix(strings.ToUpper(vis), "PRIVATE_TO_") {
			target := strings.TrimSpace(vis[len("PRIVATE_TO_"):])
			switch {
			case strings.EqualFold(target, participantA):
				recipient = participantA
			case strings.EqualFold(target, participantB):
				recipient = participantB
			}
		}
	}

	return &Decision{
		Kind:      strings.TrimSpace(kind),
		Fallacy:   fallacy,
		Recipient: recipient,
		Content:   content,
	}
}

func extractTag(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
