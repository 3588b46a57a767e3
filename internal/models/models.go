package models

import (
	"time"
)

// User is an identity stub. Users are seeded or synthesized up front and never
// mutated; real authentication is a separate collaborator.
type User struct {
	ID     string `gorm:"size:64" json:"id"`
	Name   string `gorm:"size:128" json:"name"`
	Avatar string `gorm:"size:256" json:"avatar,omitempty"`
}

// Position is the stance a post takes within its thread.
type Position string

const (
	PositionSupport Position = "support"
	PositionCounter Position = "counter"
	PositionNeutral Position = "neutral"
)

func (p Position) Valid() bool {
	return p == PositionSupport || p == PositionCounter || p == PositionNeutral
}

// Choice is a vote for or against a subject.
type Choice string

const (
	ChoiceSupport Choice = "support"
	ChoiceCounter Choice = "counter"
)

func (c Choice) Valid() bool {
	return c == ChoiceSupport || c == ChoiceCounter
}

// SubjectKind distinguishes what a vote is attached to.
type SubjectKind string

const (
	SubjectTopic SubjectKind = "topic"
	SubjectPost  SubjectKind = "post"
)

// Topic is a debate prompt. SupportCount and CounterCount are only ever
// adjusted through the vote ledger, never set directly by client input.
type Topic struct {
	ID           string    `gorm:"primarykey;size:64" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Author       User      `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	Tags         []string  `gorm:"serializer:json" json:"tags"`
	SupportCount int       `gorm:"not null;default:0" json:"supportCount"`
	CounterCount int       `gorm:"not null;default:0" json:"counterCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Consensus returns the topic's current support ratio.
func (t *Topic) Consensus() float64 {
	return Consensus(t.SupportCount, t.CounterCount)
}

// Post is a reply within a thread, optionally tagged with a stance. It carries
// its own vote tallies, independent of the thread's.
type Post struct {
	ID           string    `gorm:"primarykey;size:64" json:"id"`
	ThreadID     string    `gorm:"not null;index;size:64" json:"threadId"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Author       User      `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	Position     Position  `gorm:"size:16;not null;default:neutral" json:"position"`
	SupportCount int       `gorm:"not null;default:0" json:"supportCount"`
	CounterCount int       `gorm:"not null;default:0" json:"counterCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p *Post) Consensus() float64 {
	return Consensus(p.SupportCount, p.CounterCount)
}

// Vote is a ledger entry: the single recorded choice a user has made for a
// subject. At most one row exists per (kind, subject, voter).
type Vote struct {
	ID        uint        `gorm:"primarykey" json:"-"`
	Kind      SubjectKind `gorm:"size:8;not null;uniqueIndex:idx_subject_voter" json:"kind"`
	SubjectID string      `gorm:"size:64;not null;uniqueIndex:idx_subject_voter" json:"subjectId"`
	VoterID   string      `gorm:"size:64;not null;uniqueIndex:idx_subject_voter" json:"voterId"`
	Choice    Choice      `gorm:"size:8;not null" json:"choice"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Tally is the resulting vote state of a subject after a cast, used for
// responses and live broadcasts.
type Tally struct {
	Kind         SubjectKind `json:"kind"`
	SubjectID    string      `json:"subjectId"`
	SupportCount int         `json:"supportCount"`
	CounterCount int         `json:"counterCount"`
}

func (t Tally) Consensus() float64 {
	return Consensus(t.SupportCount, t.CounterCount)
}

// Consensus derives the support ratio of a subject. With no votes at all it
// returns 0.5: "no signal yet", not "fully against". The ratio is never
// stored; every read recomputes it from the live counts.
func Consensus(supportCount, counterCount int) float64 {
	total := supportCount + counterCount
	if total == 0 {
		return 0.5
	}
	return float64(supportCount) / float64(total)
}
