package visualizer

import "errors"

var (
	// ErrTornDown is returned from operations on a visualizer whose
	// session was already destroyed
	ErrTornDown = errors.New("visualizer has been torn down")

	// ErrUnknownDeck is returned for transport commands that name a
	// deck other than original or remix
	ErrUnknownDeck = errors.New("unknown deck")

	// ErrDeckEmpty is returned when a transport command targets a deck
	// with no audio loaded yet
	ErrDeckEmpty = errors.New("deck has no audio loaded")
)
