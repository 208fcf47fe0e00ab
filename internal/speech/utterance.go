package speech

// Utterance is a single piece of text to be spoken. The zero value is an
// empty utterance. Utterances are immutable.
type Utterance struct {
	text string
}

// NewUtterance returns an utterance carrying text.
func NewUtterance(text string) Utterance {
	return Utterance{text: text}
}

// Text returns the text to speak.
func (u Utterance) Text() string {
	return u.text
}

func (u Utterance) String() string {
	return u.text
}
