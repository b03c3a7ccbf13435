package types

type Token uint32
type Tokens []Token
type TokenMap map[string]Token

const (
	TokenSize   = 2
	TokenSize32 = 4
)

// Pair is an ordered pair of adjacent symbols; it is comparable and used
// directly as a map key.
type Pair struct {
	Left  string
	Right string
}

// Merged returns the symbol produced by merging the pair.
func (p Pair) Merged() string {
	return p.Left + p.Right
}

// Less orders pairs lexicographically, Left first.
func (p Pair) Less(other Pair) bool {
	if p.Left != other.Left {
		return p.Left < other.Left
	}
	return p.Right < other.Right
}
