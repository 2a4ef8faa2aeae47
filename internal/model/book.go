package model

import (
	"fmt"
)

// Book is a catalog entry the remote API tracks with an available count.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"titulo"`
	Author    string    `json:"autor"`
	Available int       `json:"quantidade"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Kind implements DonatableItem.
func (b Book) Kind() Kind { return KindBook }

// Description implements DonatableItem: "{title} - {author}".
func (b Book) Description() string {
	return fmt.Sprintf("%s - %s", b.Title, b.Author)
}

// SoldOut reports whether the book can no longer be selected for donation.
func (b Book) SoldOut() bool {
	return b.Available <= 0
}

// BookInput carries the editable fields of a book for create and update calls.
type BookInput struct {
	Title     string `json:"titulo"`
	Author    string `json:"autor"`
	Available int    `json:"quantidade"`
}
