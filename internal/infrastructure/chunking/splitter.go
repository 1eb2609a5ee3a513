package chunking

// maxChunks bounds the window loop against pathological inputs. When the
// cap is hit the remainder is emitted as one final oversized chunk so the
// full text stays covered.
const maxChunks = 10000

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	// Overlap must stay strictly below the chunk size to guarantee
	// forward progress.
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	step := s.ChunkSize - s.Overlap
	out := make([]string, 0, len(runes)/step+1)
	start := 0
	for start < len(runes) {
		if len(out) >= maxChunks {
			out = append(out, string(runes[start:]))
			break
		}

		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}

		next := start + step
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}
