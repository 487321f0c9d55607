package domain

import "time"

type SessionCode string
type MessageID string
type ConstitutionID int64

// Status of a conversation session.
type Status string

const (
	StatusWaiting Status = "WAITING" // created, second participant not joined yet
	StatusActive  Status = "ACTIVE"
	StatusEnded   Status = "ENDED"
)

// Mode shapes how active the mediator is asked to be.
type Mode string

const (
	ModeFreeTalk Mode = "FREE_TALK"
	ModeGuided   Mode = "GUIDED"
	ModeDebrief  Mode = "DEBRIEF"
)

// MessageKind tags a stored message. Mediator decisions carry an open
// vocabulary of kinds, so this stays a string type rather than a closed enum.
type MessageKind string

const (
	KindChat             MessageKind = "CHAT"
	KindSystem           MessageKind = "SYSTEM"
	KindPrivate          MessageKind = "PRIVATE"
	KindPrivateCoaching  MessageKind = "PRIVATE_COACHING"
	KindTranslation      MessageKind = "TRANSLATION"
	KindSummary          MessageKind = "SUMMARY"
	KindTemperatureCheck MessageKind = "TEMPERATURE_CHECK"
	KindParkingLot       MessageKind = "PARKING_LOT"
	KindObservation      MessageKind = "OBSERVATION"
)

// Reserved sender identities. Everything else is a participant name.
const (
	DiplomatSender = "DIPLOMAT"
	SystemSender   = "SYSTEM"
)

type Timestamp = time.Time
