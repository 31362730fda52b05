package contract

// words is the hidden word pool, indexed by hidden_word_id.
// Ids at or past the end of the table map to fallbackWord.
var words = [...]string{
	"APPLE", "BANANA", "ORANGE", "GRAPE", "MANGO",
	"PEACH", "LEMON", "CHERRY", "PEAR", "PLUM",
	"KIWI", "FIG", "DATE", "LIME", "APRICOT",
	"PAPAYA", "GUAVA", "PINEAPPLE", "COCONUT", "BLUEBERRY",
	"STRAWBERRY", "RASPBERRY", "BLACKBERRY", "WATERMELON", "CANTALOUPE",
	"HONEYDEW", "NECTARINE", "TANGERINE", "POMEGRANATE", "PASSIONFRUIT",
	"DRAGONFRUIT", "LYCHEE", "JACKFRUIT", "CRANBERRY", "MULBERRY",
	"FIGS", "DATEFRUIT", "OLIVE", "QUINCE", "KUMQUAT",
	"AVOCADO", "MANDARIN", "PEPPERMINT", "CLEMENTINE", "GRAPEFRUIT",
	"STARFRUIT", "BILBERRY", "GOOSEBERRY", "ELDERBERRY",
}

const fallbackWord = "SATSUMA"

// LetterCount is the size of the alphabet; letter codes run 0..LetterCount-1.
const LetterCount = 26

// Word returns the hidden word for id.
func Word(id uint32) string {
	if int(id) < len(words) {
		return words[id]
	}
	return fallbackWord
}

// HiddenLetters returns the letter codes (A=0..Z=25) of the hidden word for id.
func HiddenLetters(id uint32) []uint32 {
	return EncodeWord(Word(id))
}

// EncodeWord maps an upper-case ASCII word to letter codes.
func EncodeWord(word string) []uint32 {
	out := make([]uint32, 0, len(word))
	for i := 0; i < len(word); i++ {
		out = append(out, uint32(word[i]-'A'))
	}
	return out
}

// looseMatches counts the guessed codes that occur anywhere in hidden.
// A repeated code counts once per occurrence in the guess.
func looseMatches(hidden, guess []uint32) int {
	present := make(map[uint32]struct{}, len(hidden))
	for _, c := range hidden {
		present[c] = struct{}{}
	}
	n := 0
	for _, c := range guess {
		if _, ok := present[c]; ok {
			n++
		}
	}
	return n
}
