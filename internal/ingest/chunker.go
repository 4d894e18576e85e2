package ingest

// SplitText splits text into fixed-size sliding-window chunks measured in
// runes. Consecutive chunks share overlap runes so information at a chunk
// boundary is retrievable from either side.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 400
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}

	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return chunks
}
