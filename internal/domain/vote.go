package domain

import (
	"strings"
	"time"
)

// VoteType is the direction of a ticket vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// ParseVoteType converts a wire value into a VoteType.
func ParseVoteType(raw string) (VoteType, error) {
	switch v := VoteType(strings.ToLower(strings.TrimSpace(raw))); v {
	case VoteUp, VoteDown:
		return v, nil
	}
	return "", &FieldError{Field: "vote_type", Kind: InvalidEnum, Value: raw}
}

// TicketVote records a single profile's vote on a ticket. There is at most one per
// (ticket, user) pair.
type TicketVote struct {
	ID        string
	TicketID  string
	UserID    string
	VoteType  VoteType
	CreatedAt time.Time
}
