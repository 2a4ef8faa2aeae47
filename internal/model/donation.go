package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind distinguishes book pledges from board game pledges.
type Kind int

// Donation kinds.
const (
	KindBook Kind = iota + 1
	KindGame
)

// String returns the human name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBook:
		return "book"
	case KindGame:
		return "game"
	default:
		return "unknown"
	}
}

// Wire returns the value the remote API expects in the "tipo" field.
func (k Kind) Wire() string {
	switch k {
	case KindBook:
		return "livro"
	case KindGame:
		return "jogo"
	default:
		return ""
	}
}

// ParseKind accepts both wire values and human names. Empty input yields 0.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "livro", "book":
		return KindBook, nil
	case "jogo", "game":
		return KindGame, nil
	default:
		return 0, fmt.Errorf("unknown donation kind %q", s)
	}
}

// MarshalText encodes the kind with its wire value.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.Wire()), nil
}

// UnmarshalText decodes a wire value.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DonatableItem is anything a visitor can pledge: a Book or a GameSuggestion.
type DonatableItem interface {
	Kind() Kind
	Description() string
}

// DonationRecord is a pledge as stored by the remote API.
type DonationRecord struct {
	ID         int64     `json:"id"`
	DonorName  string    `json:"nome"`
	DonorEmail string    `json:"email"`
	Kind       Kind      `json:"tipo"`
	Item       string    `json:"item"`
	BookID     *int64    `json:"livro_id,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// PledgeForm holds the donor's input for one pledge.
type PledgeForm struct {
	DonorName    string
	DonorEmail   string
	ConsentGiven bool
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Trimmed returns a copy with surrounding whitespace removed from the text fields.
func (f PledgeForm) Trimmed() PledgeForm {
	return PledgeForm{
		DonorName:    strings.TrimSpace(f.DonorName),
		DonorEmail:   strings.TrimSpace(f.DonorEmail),
		ConsentGiven: f.ConsentGiven,
	}
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// PledgeEdit holds the fields an administrator may change on a donation
// record. The linked book, if any, stays as it was.
type PledgeEdit struct {
	DonorName  string `json:"nome"`
	DonorEmail string `json:"email"`
	Kind       Kind   `json:"tipo"`
	Item       string `json:"item"`
}

// Trimmed returns a copy with surrounding whitespace removed from the text fields.
func (e PledgeEdit) Trimmed() PledgeEdit {
	return PledgeEdit{
		DonorName:  strings.TrimSpace(e.DonorName),
		DonorEmail: strings.TrimSpace(e.DonorEmail),
		Kind:       e.Kind,
		Item:       strings.TrimSpace(e.Item),
	}
}

// Edit returns the editable fields of the record.
func (d DonationRecord) Edit() PledgeEdit {
	return PledgeEdit{DonorName: d.DonorName, DonorEmail: d.DonorEmail, Kind: d.Kind, Item: d.Item}
}
