// Package service 包含了应用的业务逻辑层。
package service

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"campus-smart-go/internal/model"
	"campus-smart-go/internal/relevance"
	"campus-smart-go/pkg/log"
)

// IntentService 持有启动时加载的意图语料，并提供词袋编码能力。
// 语料与词表在加载后只读，可被并发访问。
type IntentService interface {
	Encode(message string) []float32
	Responses(tag string) []string
	Find(tag string) (*model.IntentRecord, bool)
	All() []model.IntentRecord
	VocabularySize() int
}

type intentService struct {
	intents    []model.IntentRecord
	byTag      map[string]*model.IntentRecord
	vocabulary []string
	vocabIndex map[string]int
}

// NewIntentService 从 JSON 语料文件加载意图并构建词袋词表。
// 词表由全部模式句的词元构成，按字典序排列以保证编码的确定性。
func NewIntentService(corpusPath string) (IntentService, error) {
	data, err := os.ReadFile(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent corpus: %w", err)
	}

	var corpus model.IntentCorpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to parse intent corpus: %w", err)
	}
	if len(corpus.Intents) == 0 {
		return nil, fmt.Errorf("intent corpus is empty: %s", corpusPath)
	}

	s := &intentService{
		intents:    corpus.Intents,
		byTag:      make(map[string]*model.IntentRecord, len(corpus.Intents)),
		vocabIndex: make(map[string]int),
	}

	vocabSet := make(map[string]struct{})
	for i := range s.intents {
		record := &s.intents[i]
		s.byTag[record.Tag] = record
		for _, pattern := range record.Patterns {
			for _, tok := range relevance.Tokenize(pattern) {
				vocabSet[tok] = struct{}{}
			}
		}
	}

	s.vocabulary = make([]string, 0, len(vocabSet))
	for tok := range vocabSet {
		s.vocabulary = append(s.vocabulary, tok)
	}
	sort.Strings(s.vocabulary)
	for i, tok := range s.vocabulary {
		s.vocabIndex[tok] = i
	}

	log.Infof("[IntentService] 意图语料加载完成, intents: %d, vocabulary: %d", len(s.intents), len(s.vocabulary))
	return s, nil
}

// Encode 将消息编码为与词表等长的词袋向量，词元出现记 1。
func (s *intentService) Encode(message string) []float32 {
	vector := make([]float32, len(s.vocabulary))
	for _, tok := range relevance.Tokenize(message) {
		if idx, ok := s.vocabIndex[tok]; ok {
			vector[idx] = 1
		}
	}
	return vector
}

// Responses 返回某意图的静态应答列表，未知标签时返回 nil。
func (s *intentService) Responses(tag string) []string {
	if record, ok := s.byTag[tag]; ok {
		return record.Responses
	}
	return nil
}

// Find 按标签查找意图记录。
func (s *intentService) Find(tag string) (*model.IntentRecord, bool) {
	record, ok := s.byTag[tag]
	return record, ok
}

// All 返回全部意图记录，供向量索引播种使用。
func (s *intentService) All() []model.IntentRecord {
	return s.intents
}

// VocabularySize 返回词袋向量的维度。
func (s *intentService) VocabularySize() int {
	return len(s.vocabulary)
}
