package relevance

import (
	"context"
	"errors"
	"testing"

	"campus-smart-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCorpus struct {
	documents []model.CandidateDocument
	err       error
}

func (c *staticCorpus) Query(ctx context.Context, terms []string) ([]model.CandidateDocument, error) {
	return c.documents, c.err
}

func admissionDoc(slug, page string) model.CandidateDocument {
	return model.CandidateDocument{
		Slug:    slug,
		Page:    page,
		Title:   "Admission Requirements",
		Content: "Freshmen applicants must submit Form 138, a certificate of good moral character, and two recent ID photos.",
	}
}

func TestRankNeverExceedsTopK(t *testing.T) {
	ranker := NewRanker(NewScorer())

	documents := []model.CandidateDocument{
		admissionDoc("doc-1", "p1"),
		admissionDoc("doc-2", "p2"),
		admissionDoc("doc-3", "p3"),
		admissionDoc("doc-4", "p4"),
		admissionDoc("doc-5", "p5"),
	}
	results := ranker.Rank("freshmen admission requirements", documents, 0, 2)
	assert.Len(t, results, 2)

	assert.Nil(t, ranker.Rank("freshmen admission requirements", documents, 0, 0))
}

func TestRankFiltersBelowMinScore(t *testing.T) {
	ranker := NewRanker(NewScorer())

	documents := []model.CandidateDocument{
		admissionDoc("relevant", "p1"),
		{Slug: "unrelated", Page: "p2", Title: "Cafeteria Menu", Content: "The cafeteria serves breakfast and lunch from Monday to Friday, with vegetarian options available daily."},
	}

	results := ranker.Rank("freshmen admission requirements", documents, 0.3, 10)
	require.NotEmpty(t, results)
	for _, sd := range results {
		assert.GreaterOrEqual(t, sd.Score, 0.3)
		assert.NotEqual(t, "unrelated", sd.Document.Slug)
	}

	assert.Empty(t, ranker.Rank("freshmen admission requirements", documents, 0.999, 10))
}

func TestRankDeduplicatesSlugs(t *testing.T) {
	ranker := NewRanker(NewScorer())

	documents := []model.CandidateDocument{
		admissionDoc("same-slug", "p1"),
		admissionDoc("same-slug", "p2"),
		admissionDoc("same-slug", "p3"),
	}
	results := ranker.Rank("freshmen admission requirements", documents, 0, 10)
	assert.Len(t, results, 1)
	// 首个出现者保留
	assert.Equal(t, "p1", results[0].Document.Page)
}

func TestRankAppliesPageDiversityPenalty(t *testing.T) {
	ranker := NewRanker(NewScorer())

	// 同一页面四条中等相关的候选，超出软上限的应被降权
	documents := []model.CandidateDocument{
		{Slug: "a", Page: "same", Title: "Enrollment Notes", Content: "Enrollment for the coming semester opens in June and closes at the end of July for all colleges."},
		{Slug: "b", Page: "same", Title: "Enrollment Notes", Content: "Enrollment for the coming semester opens in June and closes at the end of July for all colleges and institutes."},
		{Slug: "c", Page: "same", Title: "Enrollment Notes", Content: "Enrollment for the coming semester opens in June and closes at the end of July for every program."},
		{Slug: "d", Page: "same", Title: "Enrollment Notes", Content: "Enrollment for the coming semester opens in June and closes at the end of July for every department."},
	}
	full := ranker.Rank("when does enrollment open", documents, 0, 10)
	require.Len(t, full, 4)

	// 前两条不受多样性惩罚，其后的候选得分不高于同批前两名
	assert.GreaterOrEqual(t, full[1].Score, full[2].Score)
	assert.GreaterOrEqual(t, full[2].Score, full[3].Score)
}

func TestFindBestRespectsMinScore(t *testing.T) {
	ranker := NewRanker(NewScorer())

	documents := []model.CandidateDocument{
		admissionDoc("best", "p1"),
		{Slug: "weak", Page: "p2", Title: "Sports Fest", Content: "The annual sports fest features basketball, volleyball and track events across two weekends in February."},
	}

	best := ranker.FindBest("freshmen admission requirements", documents, 0.3)
	require.NotNil(t, best)
	assert.Equal(t, "best", best.Document.Slug)

	assert.Nil(t, ranker.FindBest("freshmen admission requirements", documents, 0.999))
}

func TestSearchCorpusEarlyExit(t *testing.T) {
	ranker := NewRanker(NewScorer())
	corpus := &staticCorpus{documents: []model.CandidateDocument{
		{Slug: "first-hit", Page: "p1", Title: "Admission Requirements", Content: "Freshmen applicants must submit Form 138 and a certificate of good moral character before enrollment."},
		admissionDoc("would-be-better", "p2"),
	}}

	// 门槛极低时第一条达标的候选立即返回，扫描刻意不穷尽
	sd, err := ranker.SearchCorpus(context.Background(), corpus, "freshmen admission requirements", 0.1, 0.2)
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, "first-hit", sd.Document.Slug)
}

func TestSearchCorpusKeepsBestWithoutEarlyExit(t *testing.T) {
	ranker := NewRanker(NewScorer())
	corpus := &staticCorpus{documents: []model.CandidateDocument{
		{Slug: "weak", Page: "p1", Title: "Cafeteria Menu", Content: "The cafeteria serves breakfast and lunch from Monday to Friday, with vegetarian options available daily."},
		admissionDoc("strong", "p2"),
	}}

	sd, err := ranker.SearchCorpus(context.Background(), corpus, "freshmen admission requirements", 0.1, 0.999)
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, "strong", sd.Document.Slug)
}

func TestSearchCorpusPropagatesQueryError(t *testing.T) {
	ranker := NewRanker(NewScorer())
	corpus := &staticCorpus{err: errors.New("corpus offline")}

	sd, err := ranker.SearchCorpus(context.Background(), corpus, "anything at all", 0.1, 0.9)
	assert.Error(t, err)
	assert.Nil(t, sd)
}
