package relevance

import (
	"context"
	"sort"
	"strings"

	"campus-smart-go/internal/model"
	"campus-smart-go/pkg/log"
)

// 排序阶段的固定系数。
const (
	densityBoost       = 1.10
	diversityPenalty   = 0.92
	perPageSoftCap     = 2
	highScoreOverride  = 0.35
)

// ScoredDocument 是一条带得分的候选文档。
type ScoredDocument struct {
	Document model.CandidateDocument
	Score    float64
}

// Corpus 抽象了候选文档语料的查询入口。
// 实现方应在索引检索不可用时退化为全量扫描，而不是返回错误。
type Corpus interface {
	Query(ctx context.Context, terms []string) ([]model.CandidateDocument, error)
}

// Ranker 对候选文档按相关性得分排序，并施加页面多样性约束。
type Ranker struct {
	scorer *Scorer
}

// NewRanker 创建一个新的 Ranker 实例。
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

// Rank 对候选文档打分并排序，返回至多 topK 条结果。
// slug 去重先于打分，首个出现者保留；低于 minScore 的候选被丢弃。
func (r *Ranker) Rank(query string, documents []model.CandidateDocument, minScore float64, topK int) []ScoredDocument {
	if topK <= 0 {
		return nil
	}

	queryTokens := Tokenize(query)

	// 按 slug 去重，保留首个出现的文档
	seen := make(map[string]struct{}, len(documents))
	scored := make([]ScoredDocument, 0, len(documents))
	for _, doc := range documents {
		if _, dup := seen[doc.Slug]; dup {
			continue
		}
		seen[doc.Slug] = struct{}{}

		score := r.scorer.Score(query, doc)
		if score < minScore {
			continue
		}

		// 查询词元过半出现在文档文本中时施加密度加成
		if r.tokenDensityHigh(queryTokens, doc) {
			score *= densityBoost
		}
		if score > 1 {
			score = 1
		}
		scored = append(scored, ScoredDocument{Document: doc, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// 同一页面超出软上限的候选施加多样性惩罚，高分候选不受影响
	perPage := make(map[string]int)
	results := make([]ScoredDocument, 0, len(scored))
	for _, sd := range scored {
		page := sd.Document.Page
		if perPage[page] >= perPageSoftCap && sd.Score <= highScoreOverride {
			sd.Score *= diversityPenalty
			if sd.Score < minScore {
				continue
			}
		}
		perPage[page]++
		results = append(results, sd)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// FindBest 返回候选集中得分最高且不低于 minScore 的单条文档。
// 它是排序展示路径之外的独立兜底路径，调用方通常给出更低的门槛。
func (r *Ranker) FindBest(query string, documents []model.CandidateDocument, minScore float64) *ScoredDocument {
	var best *ScoredDocument
	seen := make(map[string]struct{}, len(documents))
	for _, doc := range documents {
		if _, dup := seen[doc.Slug]; dup {
			continue
		}
		seen[doc.Slug] = struct{}{}

		score := r.scorer.Score(query, doc)
		if score < minScore {
			continue
		}
		if best == nil || score > best.Score {
			best = &ScoredDocument{Document: doc, Score: score}
		}
	}
	return best
}

// SearchCorpus 针对在线语料做扫描式检索。
// 一旦某候选得分达到 earlyExitScore 立即返回，用完整性换延迟；
// 这是刻意的非穷尽检索，而非缺陷。未触发提前返回时保留得分最高者。
func (r *Ranker) SearchCorpus(ctx context.Context, corpus Corpus, query string, minScore, earlyExitScore float64) (*ScoredDocument, error) {
	terms := Tokenize(query)
	documents, err := corpus.Query(ctx, terms)
	if err != nil {
		return nil, err
	}
	log.Debugf("[Ranker] 语料扫描开始, query: '%s', candidates: %d", query, len(documents))

	var best *ScoredDocument
	seen := make(map[string]struct{}, len(documents))
	for _, doc := range documents {
		if _, dup := seen[doc.Slug]; dup {
			continue
		}
		seen[doc.Slug] = struct{}{}

		score := r.scorer.Score(query, doc)
		if score >= earlyExitScore {
			log.Debugf("[Ranker] 语料扫描提前返回, slug: %s, score: %.3f", doc.Slug, score)
			return &ScoredDocument{Document: doc, Score: score}, nil
		}
		if score < minScore {
			continue
		}
		if best == nil || score > best.Score {
			best = &ScoredDocument{Document: doc, Score: score}
		}
	}
	return best, nil
}

// tokenDensityHigh 判断是否有超过一半的查询词元出现在文档合并文本中。
func (r *Ranker) tokenDensityHigh(queryTokens []string, doc model.CandidateDocument) bool {
	if len(queryTokens) == 0 {
		return false
	}
	combined := strings.ToLower(doc.Title + " " + doc.Content + " " + doc.Tags + " " + doc.Page + " " + doc.Slug)
	present := 0
	for _, qt := range queryTokens {
		if strings.Contains(combined, qt) {
			present++
		}
	}
	return present*2 > len(queryTokens)
}
