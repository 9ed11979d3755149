package hands

import (
	"fmt"
	"sort"

	"github.com/paulhankin/poker"

	"github.com/tokenarena/poker/cards"
)

// Evaluation is the strength of a seven-card hand. Score is a total ordering
// over hands (higher wins, equal scores tie); Description is human-readable.
type Evaluation struct {
	Score       int16
	Description string
}

// Evaluate scores two hole cards combined with five community cards.
func Evaluate(hole cards.Cards, community cards.Cards) (Evaluation, error) {
	if len(hole) != 2 || len(community) != 5 {
		return Evaluation{}, fmt.Errorf("evaluate needs 2 hole and 5 community cards, got %d and %d", len(hole), len(community))
	}

	var seven [7]poker.Card
	for i, c := range community {
		libCard, err := toLibCard(c)
		if err != nil {
			return Evaluation{}, err
		}
		seven[i] = libCard
	}
	for i, c := range hole {
		libCard, err := toLibCard(c)
		if err != nil {
			return Evaluation{}, err
		}
		seven[5+i] = libCard
	}

	score := poker.Eval7(&seven)
	description, err := poker.Describe(seven[:])
	if err != nil {
		return Evaluation{}, fmt.Errorf("describe hand: %w", err)
	}

	return Evaluation{Score: score, Description: description}, nil
}

// Winners returns the player IDs holding the strongest hands.
// Equal scores tie and every tied ID is returned, in deterministic order.
func Winners(evals map[string]Evaluation) []string {
	var winners []string
	var best int16

	for id, eval := range evals {
		switch {
		case len(winners) == 0 || eval.Score > best:
			winners = []string{id}
			best = eval.Score
		case eval.Score == best:
			winners = append(winners, id)
		}
	}

	sort.Strings(winners)
	return winners
}

// toLibCard converts a card into the evaluator's representation:
// suits 0..3 are clubs, diamonds, hearts, spades; ranks 1 (ace) to 13 (king).
func toLibCard(c cards.Card) (poker.Card, error) {
	var zero poker.Card

	var suit poker.Suit
	switch c.Suit {
	case cards.Clubs:
		suit = poker.Suit(0)
	case cards.Diamonds:
		suit = poker.Suit(1)
	case cards.Hearts:
		suit = poker.Suit(2)
	case cards.Spades:
		suit = poker.Suit(3)
	default:
		return zero, fmt.Errorf("invalid card suit: %q", c.Suit)
	}

	var rank poker.Rank
	switch c.Value {
	case cards.Ace:
		rank = poker.Rank(1)
	case cards.Two:
		rank = poker.Rank(2)
	case cards.Three:
		rank = poker.Rank(3)
	case cards.Four:
		rank = poker.Rank(4)
	case cards.Five:
		rank = poker.Rank(5)
	case cards.Six:
		rank = poker.Rank(6)
	case cards.Seven:
		rank = poker.Rank(7)
	case cards.Eight:
		rank = poker.Rank(8)
	case cards.Nine:
		rank = poker.Rank(9)
	case cards.Ten:
		rank = poker.Rank(10)
	case cards.Jack:
		rank = poker.Rank(11)
	case cards.Queen:
		rank = poker.Rank(12)
	case cards.King:
		rank = poker.Rank(13)
	default:
		return zero, fmt.Errorf("invalid card value: %q", c.Value)
	}

	return poker.MakeCard(suit, rank)
}
