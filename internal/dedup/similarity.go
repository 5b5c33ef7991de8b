package dedup

import "strings"

// Similarity computes a lexical similarity score between two task names in
// [0.0, 1.0]. The score is a sequence-alignment ratio: twice the total
// length of the longest matching blocks divided by the combined length of
// both strings. Word order and partial substring differences are penalized
// proportionally, unlike token-set overlap which is all-or-nothing.
//
// Names are lowercased and trimmed before comparison so formatting
// differences don't produce spurious mismatches. Punctuation is kept.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	// Block discovery is order-sensitive in rare tie cases; a canonical
	// argument order keeps the score symmetric.
	if string(rb) < string(ra) {
		ra, rb = rb, ra
	}

	return 2.0 * float64(totalMatching(ra, rb)) / float64(total)
}

// totalMatching sums the lengths of all matching blocks between a and b.
// Blocks are found by recursively locating the longest common substring
// and repeating on the pieces to its left and right.
func totalMatching(a, b []rune) int {
	type region struct {
		alo, ahi, blo, bhi int
	}

	matches := 0
	stack := []region{{0, len(a), 0, len(b)}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, size := longestMatch(a, b, r.alo, r.ahi, r.blo, r.bhi)
		if size == 0 {
			continue
		}
		matches += size
		stack = append(stack,
			region{r.alo, i, r.blo, j},
			region{i + size, r.ahi, j + size, r.bhi},
		)
	}
	return matches
}

// longestMatch finds the longest matching block within a[alo:ahi] and
// b[blo:bhi], returning its start in each string and its length. Of equal
// longest blocks it returns the one starting earliest in a, then earliest
// in b.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int, len(b2j[a[i]]))
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces. Used for the substring-containment checks in Compare and
// MergeDescriptions.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
