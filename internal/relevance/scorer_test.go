package relevance

import (
	"strings"
	"testing"

	"campus-smart-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreIsAlwaysBounded(t *testing.T) {
	scorer := NewScorer()

	queries := []string{
		"",
		"admission",
		"what are the requirements for freshmen admission",
		"admission admission admission admission admission",
		"zzz qqq xxx",
	}
	documents := []model.CandidateDocument{
		{},
		{Slug: "a", Title: "Admission Requirements", Content: "Freshmen applicants must submit Form 138."},
		{Slug: "b", Title: "admission admission admission", Content: repeat("admission ", 500), Tags: "admission,enrollment"},
		{Slug: "c", Title: "", Content: repeat("x", 6000)},
		{Slug: "d", Page: "admissions", Content: "short"},
	}

	for _, q := range queries {
		for _, doc := range documents {
			score := scorer.Score(q, doc)
			assert.GreaterOrEqual(t, score, 0.0, "query=%q slug=%q", q, doc.Slug)
			assert.LessOrEqual(t, score, 1.0, "query=%q slug=%q", q, doc.Slug)
		}
	}
}

func TestScoreFreshmenAdmissionScenario(t *testing.T) {
	scorer := NewScorer()
	query := "what are the requirements for freshmen admission"

	target := model.CandidateDocument{
		Slug:    "admissions-requirements",
		Page:    "admissions",
		Title:   "Admission Requirements",
		Content: "Freshmen applicants must submit Form 138, a certificate of good moral character, and two recent ID photos.",
	}
	unrelated := []model.CandidateDocument{
		{Slug: "cafeteria-menu", Page: "services", Title: "Cafeteria Menu", Content: "The cafeteria serves breakfast and lunch from Monday to Friday, with vegetarian options available daily."},
		{Slug: "parking-policy", Page: "services", Title: "Parking Policy", Content: "Vehicle stickers are issued per semester and parking slots are assigned on a first come first served basis."},
		{Slug: "sports-fest", Page: "events", Title: "Sports Fest", Content: "The annual sports fest features basketball, volleyball and track events across two weekends in February."},
	}

	score := scorer.Score(query, target)
	assert.Greater(t, score, 0.3)

	ranker := NewRanker(scorer)
	documents := append([]model.CandidateDocument{target}, unrelated...)
	results := ranker.Rank(query, documents, 0, 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "admissions-requirements", results[0].Document.Slug)
}

func TestScoreShortContentIsPenalized(t *testing.T) {
	scorer := NewScorer()
	short := model.CandidateDocument{Slug: "s", Title: "Admission Requirements", Content: "Submit Form 138."}
	long := model.CandidateDocument{Slug: "l", Title: "Admission Requirements", Content: "Freshmen applicants must submit Form 138, a certificate of good moral character, and two recent ID photos."}

	query := "freshmen admission requirements"
	assert.Less(t, scorer.Score(query, short), scorer.Score(query, long))
}

func TestMatchInEarlyZoneCountsRunes(t *testing.T) {
	scorer := NewScorer()
	sets := []map[string]struct{}{{"admission": {}}}

	// 多字节后缀把字节总长放大约三倍；区域按字符数计算时，
	// 位于第 60 个字符处的命中已超出前 20%（共 269 字符）
	prefix := strings.Repeat("x", 60)
	suffix := strings.Repeat("校", 200)
	assert.False(t, scorer.matchInEarlyZone(sets, prefix+"admission"+suffix))

	assert.True(t, scorer.matchInEarlyZone(sets, "admission "+prefix+suffix))
	assert.False(t, scorer.matchInEarlyZone(sets, ""))
}

func TestFuzzyRatio(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyRatio("", ""))
	assert.Equal(t, 1.0, FuzzyRatio("abc", "abc"))
	assert.Equal(t, 0.0, FuzzyRatio("abc", "xyz"))
	// "itt" 和 "n" 两个匹配块，共 4 个字符：2*4/13
	assert.InDelta(t, 0.6154, FuzzyRatio("kitten", "sitting"), 0.001)
	assert.Equal(t, 0.0, FuzzyRatio("abc", ""))
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("What are the Requirements, for Freshmen admission?")
	assert.Equal(t, []string{"requirements", "freshmen", "admission"}, tokens)

	assert.Nil(t, Tokenize(""))
	assert.Empty(t, Tokenize("a an is"))
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
