package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"campus-smart-go/internal/config"
	"campus-smart-go/internal/model"
	"campus-smart-go/internal/relevance"
	"campus-smart-go/pkg/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIntentCorpus = `{
  "intents": [
    {
      "tag": "greeting",
      "patterns": ["hi", "hello", "good morning"],
      "responses": ["Hello! How can I help you today?", "Hi there! What can I do for you?"]
    },
    {
      "tag": "announcements",
      "patterns": ["what are the latest announcements", "any news"],
      "responses": ["Let me check the latest announcements for you."]
    },
    {
      "tag": "registrar_office",
      "patterns": ["how can i get my transcript", "registration schedule"],
      "responses": ["The Registrar Office processes transcripts and registration records."]
    },
    {
      "tag": "admission_office",
      "patterns": ["how do i apply for admission", "admission requirements"],
      "responses": ["The Admission Office handles applications and enrollment."]
    }
  ]
}`

type fakeClassifier struct {
	prediction *classifier.Prediction
	err        error
	called     bool
	onPredict  func()
}

func (f *fakeClassifier) Predict(ctx context.Context, vector []float32) (*classifier.Prediction, error) {
	f.called = true
	if f.onPredict != nil {
		f.onPredict()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.prediction, nil
}

type fakeSearchService struct {
	hits []model.SearchHit
}

func (f *fakeSearchService) Search(ctx context.Context, query string, topK int, entryType string, scoreThreshold float64) []model.SearchHit {
	result := make([]model.SearchHit, 0, len(f.hits))
	for _, h := range f.hits {
		if entryType != "" && h.EntryType != entryType {
			continue
		}
		if scoreThreshold > 0 && h.Score < scoreThreshold {
			continue
		}
		result = append(result, h)
	}
	return result
}

type fakeConversationRepo struct {
	messages []model.ChatMessage
}

func (f *fakeConversationRepo) GetOrCreateConversationID(ctx context.Context, userID uint) (string, error) {
	return "conv-1", nil
}

func (f *fakeConversationRepo) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	return f.messages, nil
}

func (f *fakeConversationRepo) AppendMessage(ctx context.Context, userID uint, message model.ChatMessage) bool {
	f.messages = append(f.messages, message)
	return true
}

func (f *fakeConversationRepo) GetAllUserConversationMappings(ctx context.Context) (map[uint]string, error) {
	return map[uint]string{}, nil
}

type fakeAnnouncementService struct {
	announcements []model.Announcement
	listErr       error
}

func (f *fakeAnnouncementService) ListActive() ([]model.Announcement, error) {
	return f.announcements, f.listErr
}

func (f *fakeAnnouncementService) ListAll() ([]model.Announcement, error) {
	return f.announcements, nil
}

func (f *fakeAnnouncementService) Add(ctx context.Context, title, date, message, priority, category string) (*model.Announcement, error) {
	return nil, errors.New("not supported")
}

func (f *fakeAnnouncementService) GetByID(id uint) (*model.Announcement, error) {
	return nil, errors.New("not found")
}

func (f *fakeAnnouncementService) Deactivate(ctx context.Context, id uint) error {
	return nil
}

func (f *fakeAnnouncementService) FormatList(announcements []model.Announcement) string {
	if len(announcements) == 0 {
		return "There are no active announcements at the moment."
	}
	return "FORMATTED ANNOUNCEMENTS"
}

type emptyCorpus struct {
	documents []model.CandidateDocument
}

func (c *emptyCorpus) Query(ctx context.Context, terms []string) ([]model.CandidateDocument, error) {
	return c.documents, nil
}

type resolverFixture struct {
	resolver     ResolverService
	contexts     ContextService
	classifier   *fakeClassifier
	search       *fakeSearchService
	conversation *fakeConversationRepo
	corpus       *emptyCorpus
}

func testResolverConfig() config.ResolverConfig {
	return config.ResolverConfig{
		NeuralThreshold: 0.75,
		ResponseGate:    0.7,
		VectorFloor:     0.6,
		FallbackFloor:   0.3,
		EarlyExitScore:  0.80,
		NeuralWeight:    0.6,
		VectorWeight:    0.4,
		ContextBonus:    0.1,
		SearchTopK:      5,
		RandomSeed:      1,
	}
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	return newResolverFixtureWithConfig(t, testResolverConfig())
}

func newResolverFixtureWithConfig(t *testing.T, cfg config.ResolverConfig) *resolverFixture {
	t.Helper()

	corpusPath := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(testIntentCorpus), 0o644))

	intents, err := NewIntentService(corpusPath)
	require.NoError(t, err)

	fx := &resolverFixture{
		contexts:     NewContextService(DefaultOfficeRules),
		classifier:   &fakeClassifier{err: errors.New("model offline")},
		search:       &fakeSearchService{},
		conversation: &fakeConversationRepo{},
		corpus:       &emptyCorpus{},
	}

	offices := map[string]string{
		"admission_office": "Admission Office",
		"registrar_office": "Registrar Office",
		"ict_office":       "ICT Office",
	}
	fx.resolver = NewResolverService(
		cfg,
		offices,
		fx.contexts,
		intents,
		fx.classifier,
		fx.search,
		&fakeAnnouncementService{},
		fx.conversation,
		relevance.NewRanker(relevance.NewScorer()),
		fx.corpus,
	)
	return fx
}

func TestResolveConfirmationSwitchShortCircuits(t *testing.T) {
	fx := newResolverFixture(t)

	result := fx.resolver.Resolve(context.Background(), 1, "yes, switch to the admission office")

	assert.Equal(t, model.SourceContextSwitch, result.Source)
	assert.Equal(t, "admission_office", result.Office)
	assert.Contains(t, result.Response, "Admission Office")
	assert.Equal(t, "admission_office", fx.contexts.GetCurrentOffice(1))
	// 显式切换绕过分类
	assert.False(t, fx.classifier.called)
}

func TestResolveClarifiesOnOfficeMismatch(t *testing.T) {
	fx := newResolverFixture(t)
	fx.contexts.SetCurrentOffice(2, "ict_office")

	result := fx.resolver.Resolve(context.Background(), 2, "I need my transcript of records")

	assert.Equal(t, model.SourceClarification, result.Source)
	assert.Contains(t, result.Response, "Registrar Office")
	// 未确认前当前办公室保持不变，且不触发分类
	assert.Equal(t, "ict_office", fx.contexts.GetCurrentOffice(2))
	assert.False(t, fx.classifier.called)
}

func TestResolveNeuralWinAndTerminalIntentClearsContext(t *testing.T) {
	fx := newResolverFixture(t)
	fx.classifier.err = nil
	fx.classifier.prediction = &classifier.Prediction{Tag: "greeting", Confidence: 0.9}
	fx.contexts.SetCurrentOffice(3, "ict_office")

	result := fx.resolver.Resolve(context.Background(), 3, "hello there")

	assert.Equal(t, model.SourceNeuralNetwork, result.Source)
	assert.Equal(t, "greeting", result.FinalTag)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Contains(t, []string{
		"Hello! How can I help you today?",
		"Hi there! What can I do for you?",
	}, result.Response)
	// 终结意图清空整个上下文
	assert.Equal(t, "", fx.contexts.GetCurrentOffice(3))
}

func TestResolveReusesCannedVectorResponse(t *testing.T) {
	fx := newResolverFixture(t)
	fx.classifier.err = nil
	fx.classifier.prediction = &classifier.Prediction{Tag: "greeting", Confidence: 0.5}
	fx.search.hits = []model.SearchHit{
		{ID: "response-registrar_office-0", Score: 0.8, Text: "The Registrar Office processes transcripts.", Tag: "registrar_office", EntryType: model.EntryTypeResponse},
	}

	result := fx.resolver.Resolve(context.Background(), 4, "where do I claim school papers")

	assert.Equal(t, model.SourceVectorSearch, result.Source)
	assert.Equal(t, "registrar_office", result.FinalTag)
	assert.Equal(t, "The Registrar Office processes transcripts.", result.Response)
	// 办公室意图推进当前办公室
	assert.Equal(t, "registrar_office", fx.contexts.GetCurrentOffice(4))
}

func TestResolveDoesNotOverwriteConcurrentExplicitSwitch(t *testing.T) {
	fx := newResolverFixture(t)
	fx.classifier.err = nil
	fx.classifier.prediction = &classifier.Prediction{Tag: "registrar_office", Confidence: 0.9}
	// 在分类调用的窗口内，模拟同一用户的另一请求完成显式切换
	fx.classifier.onPredict = func() {
		fx.contexts.SetCurrentOffice(10, "admission_office")
	}

	result := fx.resolver.Resolve(context.Background(), 10, "where do I claim school papers")

	assert.Equal(t, model.SourceNeuralNetwork, result.Source)
	assert.Equal(t, "registrar_office", result.FinalTag)
	// 统计性结果不得覆盖并发写入的显式切换
	assert.Equal(t, "admission_office", fx.contexts.GetCurrentOffice(10))
	assert.Equal(t, "admission_office", result.Office)
}

func TestResolveEnsembleFallThrough(t *testing.T) {
	fx := newResolverFixture(t)
	fx.contexts.SetCurrentOffice(11, "registrar_office")
	fx.classifier.err = nil
	fx.classifier.prediction = &classifier.Prediction{Tag: "registrar_office", Confidence: 0.7}
	fx.search.hits = []model.SearchHit{
		{ID: "pattern-registrar_office-0", Score: 0.58, Text: "how can i get my transcript", Tag: "registrar_office", EntryType: model.EntryTypePattern},
	}

	result := fx.resolver.Resolve(context.Background(), 11, "where do I claim school papers")

	assert.Equal(t, model.SourceEnsemble, result.Source)
	assert.Equal(t, "registrar_office", result.FinalTag)
	// 0.6*0.7 + 0.4*0.58 + 0.1 上下文加成
	assert.InDelta(t, 0.752, result.Confidence, 1e-9)
	assert.Equal(t, "The Registrar Office processes transcripts and registration records.", result.Response)
	assert.Equal(t, "registrar_office", result.Office)
}

func TestResolveEnsembleTagFollowsHigherRawSignal(t *testing.T) {
	cfg := testResolverConfig()
	cfg.ResponseGate = 0.45
	fx := newResolverFixtureWithConfig(t, cfg)
	fx.classifier.err = nil
	fx.classifier.prediction = &classifier.Prediction{Tag: "greeting", Confidence: 0.5}
	fx.search.hits = []model.SearchHit{
		{ID: "pattern-registrar_office-1", Score: 0.55, Text: "registration schedule", Tag: "registrar_office", EntryType: model.EntryTypePattern},
	}

	result := fx.resolver.Resolve(context.Background(), 12, "where do I claim school papers")

	assert.Equal(t, model.SourceEnsemble, result.Source)
	// 两路都不过各自门槛时取原始置信度较高的一路的标签
	assert.Equal(t, "registrar_office", result.FinalTag)
	// 0.6*0.5 + 0.4*0.55，无上下文加成
	assert.InDelta(t, 0.52, result.Confidence, 1e-9)
	assert.Equal(t, "registrar_office", fx.contexts.GetCurrentOffice(12))
}

func TestResolveAnnouncementsFallsBackToStaticList(t *testing.T) {
	fx := newResolverFixture(t)
	fx.classifier.err = nil
	fx.classifier.prediction = &classifier.Prediction{Tag: "announcements", Confidence: 0.9}

	announcementSvc := &fakeAnnouncementService{announcements: []model.Announcement{
		{ID: 1, Title: "Enrollment", Date: "2026-06-01", Priority: model.PriorityHigh, Message: "Enrollment opens", Active: true},
	}}
	corpusPath := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(testIntentCorpus), 0o644))
	intents, err := NewIntentService(corpusPath)
	require.NoError(t, err)

	resolver := NewResolverService(
		testResolverConfig(),
		map[string]string{},
		fx.contexts,
		intents,
		fx.classifier,
		fx.search,
		announcementSvc,
		fx.conversation,
		relevance.NewRanker(relevance.NewScorer()),
		fx.corpus,
	)

	result := resolver.Resolve(context.Background(), 5, "any news from the school")

	assert.Equal(t, "announcements", result.FinalTag)
	assert.Equal(t, "FORMATTED ANNOUNCEMENTS", result.Response)
}

func TestResolveKeywordFallback(t *testing.T) {
	fx := newResolverFixture(t)
	fx.corpus.documents = []model.CandidateDocument{
		{
			Slug:    "admissions-requirements",
			Page:    "admissions",
			Title:   "Admission Requirements",
			Content: "Freshmen applicants must submit Form 138, a certificate of good moral character, and two recent ID photos.",
		},
	}

	result := fx.resolver.Resolve(context.Background(), 6, "what are the requirements for freshmen admission")

	assert.Equal(t, model.SourceKeywordFallback, result.Source)
	assert.Contains(t, result.Response, "Form 138")
	assert.Greater(t, result.Confidence, 0.3)
}

func TestResolveFallbackTotality(t *testing.T) {
	fx := newResolverFixture(t)

	for _, message := range []string{"", "   ", "zzzz blorp qwfp"} {
		result := fx.resolver.Resolve(context.Background(), 7, message)
		require.NotNil(t, result, "message=%q", message)
		assert.Equal(t, model.SourceNone, result.Source)
		assert.Equal(t, "I'm sorry, I don't understand. Could you rephrase that?", result.Response)
	}
}

func TestResolveContextScopedFallback(t *testing.T) {
	fx := newResolverFixture(t)
	fx.contexts.SetCurrentOffice(8, "ict_office")

	result := fx.resolver.Resolve(context.Background(), 8, "zzzz blorp qwfp")

	assert.Equal(t, model.SourceNone, result.Source)
	assert.Contains(t, result.Response, "ICT Office")
	assert.Equal(t, "ict_office", result.Office)
}

func TestResolveAlwaysLogsBothMessages(t *testing.T) {
	fx := newResolverFixture(t)

	fx.resolver.Resolve(context.Background(), 9, "yes, switch to the admission office")
	fx.resolver.Resolve(context.Background(), 9, "zzzz blorp qwfp")

	require.Len(t, fx.conversation.messages, 4)
	assert.Equal(t, model.SenderUser, fx.conversation.messages[0].Sender)
	assert.Equal(t, model.SenderBot, fx.conversation.messages[1].Sender)
	assert.Equal(t, model.SenderUser, fx.conversation.messages[2].Sender)
	assert.Equal(t, model.SenderBot, fx.conversation.messages[3].Sender)
}
