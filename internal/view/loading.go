package view

import "time"

// PhraseInterval is how long each loading phrase stays on screen.
const PhraseInterval = 2 * time.Second

var loadingPhrases = []string{
	"Breaking down the RFP…",
	"Understanding requirements..",
	"Extracting key deadlines...",
	"Evaluating the similarity..",
	"Preparing the bid matrix…",
	"Reviewing key questions…",
	"Preparing comprehensive analysis...",
}

// LoadingTitle heads the loading screen.
const LoadingTitle = "Analyzing Your RFP"

// Phrase returns the i-th loading phrase, wrapping around.
func Phrase(i int) string {
	n := len(loadingPhrases)
	return loadingPhrases[((i%n)+n)%n]
}

// PhraseAt returns the phrase for the time elapsed since loading started.
func PhraseAt(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	return Phrase(int(elapsed / PhraseInterval))
}

// PhraseCount returns the number of distinct loading phrases.
func PhraseCount() int {
	return len(loadingPhrases)
}
