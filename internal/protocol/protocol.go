// Package protocol defines the tagged JSON records exchanged between
// replication clients and the session authority. Every message is a single
// flat record whose "type" field selects which optional fields are
// meaningful; Decode validates shape so receivers can discard malformed
// payloads without inspecting them further.
package protocol

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/models"
)

// Message type tags.
//
// Client to authority: cursor, addLine, updateLine, deleteLines, lines.
// Authority to client: init, participantJoined, participantLeft, cursor,
// sync, plus rebroadcasts of addLine, updateLine and deleteLines.
const (
	TypeCursor            = "cursor"
	TypeAddLine           = "addLine"
	TypeUpdateLine        = "updateLine"
	TypeDeleteLines       = "deleteLines"
	TypeLines             = "lines"
	TypeInit              = "init"
	TypeParticipantJoined = "participantJoined"
	TypeParticipantLeft   = "participantLeft"
	TypeSync              = "sync"
)

// RoomSnapshot is the full session state carried by an init message.
type RoomSnapshot struct {
	Participants map[string]models.Participant `json:"participants"`
	Lines        []models.Line                 `json:"lines"`
}

// Message is the single wire record. Type is always set; of the remaining
// fields only those meaningful for the type are populated.
type Message struct {
	Type          string              `json:"type"`
	ParticipantID string              `json:"participantId,omitempty"`
	Participant   *models.Participant `json:"participant,omitempty"`
	Cursor        *models.Point       `json:"cursor,omitempty"`
	Line          *models.Line        `json:"line,omitempty"`
	LineIDs       []string            `json:"lineIds,omitempty"`
	Lines         []models.Line       `json:"lines,omitempty"`
	Room          *RoomSnapshot       `json:"room,omitempty"`
}

// Validate checks that the fields required for the message type are present.
// An empty line set for lines and sync messages is legal (it reads as
// "no lines"), so those types carry no required fields beyond the tag.
func (m Message) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&m.Type, validation.Required, validation.In(
			TypeCursor, TypeAddLine, TypeUpdateLine, TypeDeleteLines,
			TypeLines, TypeInit, TypeParticipantJoined, TypeParticipantLeft,
			TypeSync,
		)),
	}

	switch m.Type {
	case TypeCursor:
		rules = append(rules, validation.Field(&m.Cursor, validation.Required))
	case TypeAddLine, TypeUpdateLine:
		rules = append(rules, validation.Field(&m.Line, validation.Required))
	case TypeDeleteLines:
		rules = append(rules, validation.Field(&m.LineIDs, validation.Required))
	case TypeInit:
		rules = append(rules,
			validation.Field(&m.ParticipantID, validation.Required),
			validation.Field(&m.Participant, validation.Required),
			validation.Field(&m.Room, validation.Required),
		)
	case TypeParticipantJoined:
		rules = append(rules, validation.Field(&m.Participant, validation.Required))
	case TypeParticipantLeft:
		rules = append(rules, validation.Field(&m.ParticipantID, validation.Required))
	}

	if err := validation.ValidateStruct(&m, rules...); err != nil {
		return err
	}

	// Line-bearing messages must name a line id; ownership and content are
	// trusted, identity is not.
	if (m.Type == TypeAddLine || m.Type == TypeUpdateLine) && m.Line.ID == "" {
		return fmt.Errorf("%s: line id is required", m.Type)
	}
	if m.Type == TypeParticipantJoined && m.Participant.ID == "" {
		return fmt.Errorf("%s: participant id is required", m.Type)
	}
	return nil
}

// normalize replaces absent collections with empty ones so appliers never
// see nil where "no entries" is meant.
func (m *Message) normalize() {
	switch m.Type {
	case TypeLines, TypeSync:
		if m.Lines == nil {
			m.Lines = []models.Line{}
		}
	case TypeInit:
		if m.Room != nil {
			if m.Room.Participants == nil {
				m.Room.Participants = map[string]models.Participant{}
			}
			if m.Room.Lines == nil {
				m.Room.Lines = []models.Line{}
			}
		}
	}
}

// Decode parses and validates a wire payload.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("protocol: decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, fmt.Errorf("protocol: invalid %q message: %w", m.Type, err)
	}
	m.normalize()
	return m, nil
}

// Encode validates and serializes a message.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("protocol: invalid %q message: %w", m.Type, err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}
	return data, nil
}

// Cursor builds a client-originated cursor update.
func Cursor(pt models.Point) Message {
	return Message{Type: TypeCursor, Cursor: &pt}
}

// CursorFrom builds the authority's rebroadcast of a cursor update,
// attributed to its sender.
func CursorFrom(participantID string, pt models.Point) Message {
	return Message{Type: TypeCursor, ParticipantID: participantID, Cursor: &pt}
}

// AddLine builds a line-created message.
func AddLine(line models.Line) Message {
	return Message{Type: TypeAddLine, Line: &line}
}

// UpdateLine builds a full-replacement line update.
func UpdateLine(line models.Line) Message {
	return Message{Type: TypeUpdateLine, Line: &line}
}

// DeleteLines builds a batch line removal.
func DeleteLines(ids []string) Message {
	return Message{Type: TypeDeleteLines, LineIDs: ids}
}

// OwnLines builds a bulk own-lines resync carrying the sender's complete
// owned line set.
func OwnLines(lines []models.Line) Message {
	if lines == nil {
		lines = []models.Line{}
	}
	return Message{Type: TypeLines, Lines: lines}
}

// Init builds the one-time join snapshot sent to a new connection.
func Init(self models.Participant, room RoomSnapshot) Message {
	return Message{
		Type:          TypeInit,
		ParticipantID: self.ID,
		Participant:   &self,
		Room:          &room,
	}
}

// ParticipantJoined builds a roster-addition notice.
func ParticipantJoined(p models.Participant) Message {
	return Message{Type: TypeParticipantJoined, Participant: &p}
}

// ParticipantLeft builds a roster-removal notice.
func ParticipantLeft(participantID string) Message {
	return Message{Type: TypeParticipantLeft, ParticipantID: participantID}
}

// Sync builds a full line-set replacement, broadcast after a bulk resync.
func Sync(lines []models.Line) Message {
	if lines == nil {
		lines = []models.Line{}
	}
	return Message{Type: TypeSync, Lines: lines}
}
