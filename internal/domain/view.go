package domain

// PlayerView returns a copy of state as seen by viewer: other players' hand
// and blind cards become HiddenCard placeholders of the same length. Face-up
// cards and the viewer's own zones are left intact.
func PlayerView(state *GameState, viewer int) *GameState {
	view := state.Clone()
	for _, p := range view.Players {
		if p.ID == viewer {
			continue
		}
		p.Hand = hideCards(p.Hand)
		p.Blind = hideCards(p.Blind)
	}
	// The draw pile is face down for everybody.
	view.Deck = hideCards(view.Deck)
	return view
}

func hideCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	hidden := make([]Card, len(cards))
	for i := range hidden {
		hidden[i] = HiddenCard
	}
	return hidden
}
