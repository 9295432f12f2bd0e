package contenthash

// Chunk is a unit of input: either Bytes or a Seq of further chunks.
// Nested sequences are consumed depth-first, left to right, so
// Seq{Bytes("f"), Bytes(""), Seq{Bytes("oo")}} hashes like Bytes("foo").
type Chunk interface {
	each(fn func([]byte))
}

// Bytes is a single input buffer.
type Bytes []byte

// Seq is an ordered, possibly nested, sequence of chunks.
type Seq []Chunk

func (b Bytes) each(fn func([]byte)) {
	if len(b) > 0 {
		fn(b)
	}
}

func (s Seq) each(fn func([]byte)) {
	for _, c := range s {
		if c != nil {
			c.each(fn)
		}
	}
}

// Flatten returns the concatenation of every buffer in c.
func Flatten(c Chunk) []byte {
	var out []byte
	if c != nil {
		c.each(func(p []byte) { out = append(out, p...) })
	}
	return out
}
