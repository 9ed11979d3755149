package cards

// Cards represents a collection of playing cards
type Cards []Card

func (cards Cards) String() string {
	var s string
	for _, c := range cards {
		s += c.String() + " "
	}
	return s
}

// Contains reports whether a card is present in the collection.
func (cards Cards) Contains(card Card) bool {
	for _, c := range cards {
		if c.Equals(card) {
			return true
		}
	}
	return false
}
