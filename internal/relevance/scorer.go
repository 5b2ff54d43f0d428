package relevance

import (
	"strings"
	"unicode/utf8"

	"campus-smart-go/internal/model"
)

// 打分使用的固定系数。字段权重以内容为主、标题次之，
// 模糊相似度只占很小的份额；各类加成均有上限。
const (
	weightContent = 0.40
	weightTitle   = 0.30
	weightTags    = 0.10
	weightPage    = 0.05
	weightSlug    = 0.05
	weightFuzzy   = 0.05

	partialMatchBonus = 0.05
	partialMatchCap   = 0.15
	tfBonusStep       = 0.02
	tfBonusCap        = 0.10

	phraseBonusTitlePerWord   = 0.04
	phraseBonusContentPerWord = 0.025
	phraseBonusCap            = 0.25

	positionBonus     = 0.05
	officeMatchBonus  = 0.10
	earlyZoneFraction = 0.20
)

// Scorer 在查询与候选文档之间计算 [0,1] 的相关性得分。
type Scorer struct{}

// NewScorer 创建一个新的 Scorer 实例。
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score 计算查询与候选文档的相关性得分，结果恒在 [0,1]。
// 空查询或空字段只会贡献 0 分，不会出错。
func (s *Scorer) Score(query string, doc model.CandidateDocument) float64 {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}

	// 每个查询词元的同义词扩展匹配集
	matchSets := make([]map[string]struct{}, len(queryTokens))
	for i, qt := range queryTokens {
		matchSets[i] = expandSynonyms(qt)
	}

	contentTokens := Tokenize(doc.Content)
	titleTokens := Tokenize(doc.Title)
	tagTokens := Tokenize(strings.ReplaceAll(doc.Tags, ",", " "))
	pageTokens := Tokenize(doc.Page)
	slugTokens := Tokenize(doc.Slug)

	score := weightContent * s.fieldScore(queryTokens, matchSets, contentTokens)
	score += weightTitle * s.fieldScore(queryTokens, matchSets, titleTokens)
	score += weightTags * s.fieldScore(queryTokens, matchSets, tagTokens)
	score += weightPage * s.fieldScore(queryTokens, matchSets, pageTokens)
	score += weightSlug * s.fieldScore(queryTokens, matchSets, slugTokens)
	score += weightFuzzy * FuzzyRatio(strings.ToLower(query), strings.ToLower(doc.Title))

	score += s.phraseBonus(queryTokens, doc)

	// 查询与文档同时出现办公室领域词时给予固定加成
	if containsOfficeKeyword(queryTokens) && s.documentHasOfficeKeyword(titleTokens, contentTokens, tagTokens) {
		score += officeMatchBonus
	}

	// 命中词出现在内容前 20% 时给予位置加成
	if s.matchInEarlyZone(matchSets, doc.Content) {
		score += positionBonus
	}

	score *= contentLengthFactor(utf8.RuneCountInString(doc.Content))

	return clamp01(score)
}

// fieldScore 计算单个字段的加权重合度：精确重合比例 + 受限的
// 子串部分匹配加成 + 受限的词频加成，结果不超过 1。
func (s *Scorer) fieldScore(queryTokens []string, matchSets []map[string]struct{}, fieldTokens []string) float64 {
	if len(fieldTokens) == 0 {
		return 0
	}

	counts := make(map[string]int, len(fieldTokens))
	for _, ft := range fieldTokens {
		counts[ft]++
	}

	matched := 0
	partial := 0.0
	tfBonus := 0.0
	for i, qt := range queryTokens {
		bestCount := 0
		for w := range matchSets[i] {
			if c := counts[w]; c > bestCount {
				bestCount = c
			}
		}
		if bestCount > 0 {
			matched++
			extra := bestCount - 1
			if extra > 3 {
				extra = 3
			}
			tfBonus += float64(extra) * tfBonusStep
			continue
		}
		// 未精确命中时尝试子串部分匹配，短词不参与
		if len(qt) >= 4 {
			for _, ft := range fieldTokens {
				if strings.Contains(ft, qt) || (len(ft) >= 4 && strings.Contains(qt, ft)) {
					partial += partialMatchBonus
					break
				}
			}
		}
	}

	if partial > partialMatchCap {
		partial = partialMatchCap
	}
	if tfBonus > tfBonusCap {
		tfBonus = tfBonusCap
	}

	v := float64(matched)/float64(len(queryTokens)) + partial + tfBonus
	if v > 1 {
		v = 1
	}
	return v
}

// phraseBonus 检查查询的 2/3/4 词短语是否在标题或内容中连续出现。
// 标题命中的权重高于内容命中，总加成有上限。
func (s *Scorer) phraseBonus(queryTokens []string, doc model.CandidateDocument) float64 {
	titleLower := strings.ToLower(doc.Title)
	contentLower := strings.ToLower(doc.Content)

	bonus := 0.0
	for n := 2; n <= 4 && n <= len(queryTokens); n++ {
		for i := 0; i+n <= len(queryTokens); i++ {
			phrase := strings.Join(queryTokens[i:i+n], " ")
			if titleLower != "" && strings.Contains(titleLower, phrase) {
				bonus += phraseBonusTitlePerWord * float64(n)
			} else if contentLower != "" && strings.Contains(contentLower, phrase) {
				bonus += phraseBonusContentPerWord * float64(n)
			}
		}
	}
	if bonus > phraseBonusCap {
		bonus = phraseBonusCap
	}
	return bonus
}

func (s *Scorer) documentHasOfficeKeyword(fields ...[]string) bool {
	for _, tokens := range fields {
		if containsOfficeKeyword(tokens) {
			return true
		}
	}
	return false
}

// matchInEarlyZone 判断是否有命中词出现在内容的前 20% 区域。
// 区域按字符数而非字节数计算，与 contentLengthFactor 的口径一致。
func (s *Scorer) matchInEarlyZone(matchSets []map[string]struct{}, content string) bool {
	if content == "" {
		return false
	}
	contentLower := strings.ToLower(content)
	zone := utf8.RuneCountInString(contentLower) * 20 / 100
	for _, set := range matchSets {
		for w := range set {
			if idx := strings.Index(contentLower, w); idx >= 0 && utf8.RuneCountInString(contentLower[:idx]) < zone {
				return true
			}
		}
	}
	return false
}

// contentLengthFactor 对内容长度做归一化：过短与过长都降权，
// 中等篇幅（200-2000 字符）略微加成。
func contentLengthFactor(runeCount int) float64 {
	switch {
	case runeCount < 50:
		return 0.7
	case runeCount >= 200 && runeCount <= 2000:
		return 1.05
	case runeCount > 5000:
		return 0.85
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
