package relevance

// FuzzyRatio 计算两个字符串的字符序列相似度，语义与标准 sequence-matcher
// 的 ratio 一致：2*M/T，其中 M 为所有最长匹配块覆盖的字符数，
// T 为两个字符串的总长度。结果落在 [0,1]。
func FuzzyRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchingChars(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

// matchingChars 递归地找最长公共连续块，再对块的左右两侧继续匹配。
func matchingChars(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	left := matchingChars(a[:ai], b[:bi])
	right := matchingChars(a[ai+size:], b[bi+size:])
	return left + size + right
}

// longestMatch 返回 a 与 b 的最长公共连续子串的起点与长度。
// 平局时取 a 中最靠前、其次 b 中最靠前的块，与标准实现一致。
func longestMatch(a, b []rune) (int, int, int) {
	bestI, bestJ, bestSize := 0, 0, 0
	// j2len[j] 表示以 b[j-1] 结尾的当前匹配长度
	j2len := make(map[int]int)
	for i := 0; i < len(a); i++ {
		newJ2len := make(map[int]int)
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				k := j2len[j-1] + 1
				newJ2len[j] = k
				if k > bestSize {
					bestI, bestJ, bestSize = i-k+1, j-k+1, k
				}
			}
		}
		j2len = newJ2len
	}
	return bestI, bestJ, bestSize
}
