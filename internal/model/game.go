package model

// GameItemDescription is the item text recorded for every board game pledge.
const GameItemDescription = "Board game donation"

// GameSuggestion is a board game shown on the games screen. Game pledges are
// free-form and never tied to a catalog row.
type GameSuggestion struct {
	Name string `json:"name"`
}

// Kind implements DonatableItem.
func (g GameSuggestion) Kind() Kind { return KindGame }

// Description implements DonatableItem.
func (g GameSuggestion) Description() string { return GameItemDescription }

// GameSuggestions lists the games suggested to donors.
var GameSuggestions = []GameSuggestion{
	{Name: "War"},
	{Name: "Banco Imobiliário"},
	{Name: "Detetive"},
	{Name: "Scrabble"},
	{Name: "Xadrez"},
	{Name: "Dama"},
	{Name: "Monopoly"},
	{Name: "Risk"},
	{Name: "Catan"},
	{Name: "Ticket to Ride"},
	{Name: "Dixit"},
	{Name: "Azul"},
	{Name: "Splendor"},
	{Name: "King of Tokyo"},
	{Name: "Pandemic"},
}
