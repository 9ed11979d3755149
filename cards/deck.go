package cards

import (
	"errors"
	"math/rand"
	"time"
)

// ErrDeckExhausted is returned when more cards are requested than remain in the deck.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered stack of cards, consumed from the top by dealing.
// A fresh, shuffled deck is created at the start of every hand.
type Deck struct {
	cards Cards
}

// NewShuffledDeck builds the standard 52-card set and shuffles it uniformly.
func NewShuffledDeck() *Deck {
	suits := []Suit{Spades, Hearts, Diamonds, Clubs}
	values := []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	deck := make(Cards, 0, 52)
	for _, suit := range suits {
		for _, value := range values {
			deck = append(deck, Card{Suit: suit, Value: value})
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return &Deck{cards: deck}
}

// NewStackedDeck builds a deck with a fixed order. Cards are dealt from the
// end of the slice backwards. Useful for tools and tests that need known deals.
func NewStackedDeck(stack Cards) *Deck {
	return &Deck{cards: append(Cards{}, stack...)}
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Deal removes and returns n cards from the top of the deck.
func (d *Deck) Deal(n int) (Cards, error) {
	if n > len(d.cards) {
		return nil, ErrDeckExhausted
	}

	dealt := make(Cards, n)
	copy(dealt, d.cards[len(d.cards)-n:])
	d.cards = d.cards[:len(d.cards)-n]

	return dealt, nil
}

// DealOne removes and returns the top card of the deck.
func (d *Deck) DealOne() (Card, error) {
	dealt, err := d.Deal(1)
	if err != nil {
		return Card{}, err
	}
	return dealt[0], nil
}

// Burn discards the top card, as done before each community card reveal.
func (d *Deck) Burn() error {
	_, err := d.DealOne()
	return err
}
