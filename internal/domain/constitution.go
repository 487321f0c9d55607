package domain

// Constitution is the ground-rules document a pair agrees on before (or
// while) talking. Content is Markdown.
type Constitution struct {
	ID        ConstitutionID
	Title     string
	Content   string
	CreatedBy string // "TEMPLATE", "CUSTOM" or a participant name
	Finalized bool   // both parties agreed

	CreatedAt Timestamp
	UpdatedAt Timestamp
}
