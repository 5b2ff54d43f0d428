// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"campus-smart-go/internal/config"
	"campus-smart-go/internal/model"
	"campus-smart-go/internal/relevance"
	"campus-smart-go/internal/repository"
	"campus-smart-go/pkg/classifier"
	"campus-smart-go/pkg/log"
)

// confirmationKeywords 是显式切换办公室的确认词。
// 单词按词元整词匹配，含空格的短语按子串匹配。
var confirmationKeywords = []string{"yes", "switch", "connect", "change", "sure", "okay", "proceed"}

// ResolverService 是混合应答仲裁的入口。
// Resolve 从不返回错误：任何协作方故障都会降级为一条自然语言应答，
// 且每个分支都把用户消息与机器人应答写入对话历史。
type ResolverService interface {
	Resolve(ctx context.Context, userID uint, message string) *model.ResolutionResult
}

type resolverService struct {
	cfg              config.ResolverConfig
	offices          map[string]string // 办公室标签 -> 展示名
	contextService   ContextService
	intentService    IntentService
	classifierClient classifier.Client
	searchService    SearchService
	announcementSvc  AnnouncementService
	conversationRepo repository.ConversationRepository
	ranker           *relevance.Ranker
	corpus           relevance.Corpus

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewResolverService 创建一个新的 ResolverService 实例。
// cfg.RandomSeed 非零时应答抽取是确定性的，仅用于测试。
func NewResolverService(
	cfg config.ResolverConfig,
	offices map[string]string,
	contextService ContextService,
	intentService IntentService,
	classifierClient classifier.Client,
	searchService SearchService,
	announcementSvc AnnouncementService,
	conversationRepo repository.ConversationRepository,
	ranker *relevance.Ranker,
	corpus relevance.Corpus,
) ResolverService {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &resolverService{
		cfg:              cfg,
		offices:          offices,
		contextService:   contextService,
		intentService:    intentService,
		classifierClient: classifierClient,
		searchService:    searchService,
		announcementSvc:  announcementSvc,
		conversationRepo: conversationRepo,
		ranker:           ranker,
		corpus:           corpus,
		rand:             rand.New(rand.NewSource(seed)),
	}
}

// Resolve 对一条用户消息执行完整的仲裁流程。
// 分支顺序编码了产品的冲突裁决策略：显式的导航意图（确认切换、
// 办公室不一致澄清）永远优先于统计性的分类结果，顺序不可调换。
func (s *resolverService) Resolve(ctx context.Context, userID uint, message string) *model.ResolutionResult {
	trimmed := strings.TrimSpace(message)
	log.Infof("[Resolver] 开始应答仲裁, userID: %d, message: '%s'", userID, trimmed)

	// 1. 从原始消息中识别办公室
	detectedOffice := s.contextService.Detect(trimmed)
	currentOffice := s.contextService.GetCurrentOffice(userID)

	// 空消息按未匹配意图处理，直接走最终兜底
	if trimmed == "" {
		return s.finish(ctx, userID, message, s.finalFallback(currentOffice))
	}

	// 2. 确认词 + 可识别办公室 = 显式上下文切换，短路所有后续仲裁
	if detectedOffice != "" && containsConfirmation(trimmed) {
		s.contextService.SetCurrentOffice(userID, detectedOffice)
		log.Infof("[Resolver] 步骤2: 显式切换办公室, userID: %d, office: %s", userID, detectedOffice)
		result := &model.ResolutionResult{
			FinalTag:   detectedOffice,
			Confidence: 1.0,
			Source:     model.SourceContextSwitch,
			Response:   fmt.Sprintf("You are now connected to the %s. How can I help you?", s.displayName(detectedOffice)),
			Office:     detectedOffice,
		}
		return s.finish(ctx, userID, message, result)
	}

	// 3. 已有办公室上下文且识别到不同办公室时，先澄清再分类，防止话题静默漂移
	if currentOffice != "" && detectedOffice != "" && detectedOffice != currentOffice {
		log.Infof("[Resolver] 步骤3: 办公室不一致, current: %s, detected: %s", currentOffice, detectedOffice)
		result := &model.ResolutionResult{
			FinalTag:   detectedOffice,
			Confidence: 1.0,
			Source:     model.SourceClarification,
			Response: fmt.Sprintf("You are currently connected to the %s, but this looks like a question for the %s. Say \"yes, switch to %s\" if you would like to change.",
				s.displayName(currentOffice), s.displayName(detectedOffice), s.displayName(detectedOffice)),
			Office: currentOffice,
		}
		return s.finish(ctx, userID, message, result)
	}

	// 4. 神经网络分类（词袋编码），失败时降级为纯检索路径
	var neuralTag string
	var neuralConfidence float64
	prediction, err := s.classifierClient.Predict(ctx, s.intentService.Encode(trimmed))
	if err != nil {
		log.Warnf("[Resolver] 步骤4: 分类器不可用, 降级为纯检索路径: %v", err)
	} else {
		neuralTag, neuralConfidence = prediction.Tag, prediction.Confidence
		log.Infof("[Resolver] 步骤4: 分类结果 tag: %s, confidence: %.3f", neuralTag, neuralConfidence)
	}

	// 5. 向量相似检索，取最佳命中作为第二路信号
	var bestHit *model.SearchHit
	hits := s.searchService.Search(ctx, trimmed, s.cfg.SearchTopK, "", 0)
	if len(hits) > 0 {
		bestHit = &hits[0]
		log.Infof("[Resolver] 步骤5: 向量检索最佳命中 tag: %s, score: %.3f, type: %s",
			bestHit.Tag, bestHit.Score, bestHit.EntryType)
	}

	// 6. 双路信号集成裁决
	finalTag, confidence, source := s.ensemble(neuralTag, neuralConfidence, bestHit, currentOffice)
	log.Infof("[Resolver] 步骤6: 集成裁决 tag: %s, confidence: %.3f, source: %s", finalTag, confidence, source)

	// 7. 总体置信度越过应答门限时产出意图应答
	if finalTag != "" && confidence > s.cfg.ResponseGate {
		if result := s.intentResponse(ctx, userID, trimmed, finalTag, confidence, source, bestHit, currentOffice); result != nil {
			return s.finish(ctx, userID, message, result)
		}
	}

	// 8. 低置信度兜底：不经分类器，对全库做一次更低门槛的独立检索
	if result := s.lowConfidenceSearch(ctx, trimmed, currentOffice); result != nil {
		return s.finish(ctx, userID, message, result)
	}

	// 9. 最终兜底
	return s.finish(ctx, userID, message, s.finalFallback(currentOffice))
}

// ensemble 组合神经网络与向量检索两路信号，返回 (tag, confidence, source)。
// 两路都无有效信号时返回空 tag。
func (s *resolverService) ensemble(neuralTag string, neuralConfidence float64, bestHit *model.SearchHit, currentOffice string) (string, float64, string) {
	vectorPresent := bestHit != nil
	neuralPresent := neuralTag != ""

	contextBonus := 0.0
	if vectorPresent && currentOffice != "" && bestHit.Tag == currentOffice {
		contextBonus = s.cfg.ContextBonus
	}

	switch {
	case neuralPresent && vectorPresent:
		// 裁决顺序：神经网络高置信度直接胜出；其次信任达到下限的向量命中；
		// 否则取两路中原始置信度较高者，按集成得分计
		if neuralConfidence >= s.cfg.NeuralThreshold {
			return neuralTag, neuralConfidence, model.SourceNeuralNetwork
		}
		if bestHit.Score >= s.cfg.VectorFloor {
			return bestHit.Tag, clamp01(bestHit.Score + contextBonus), model.SourceVectorSearch
		}
		ensembleScore := s.cfg.NeuralWeight*neuralConfidence + s.cfg.VectorWeight*bestHit.Score + contextBonus
		tag := neuralTag
		if bestHit.Score > neuralConfidence {
			tag = bestHit.Tag
		}
		return tag, clamp01(ensembleScore), model.SourceEnsemble
	case neuralPresent:
		return neuralTag, neuralConfidence, model.SourceNeuralNetwork
	case vectorPresent:
		if bestHit.Score >= s.cfg.VectorFloor {
			return bestHit.Tag, clamp01(bestHit.Score + contextBonus), model.SourceVectorSearch
		}
	}
	return "", 0, model.SourceNone
}

// intentResponse 为已裁决的意图产出应答，并执行上下文副作用。
// 无法为该意图产出应答时返回 nil，交由低置信度兜底路径接手。
func (s *resolverService) intentResponse(ctx context.Context, userID uint, message, finalTag string, confidence float64, source string, bestHit *model.SearchHit, currentOffice string) *model.ResolutionResult {
	var response string

	switch {
	case finalTag == "announcements":
		response = s.announcementResponse(ctx, message)
	case source == model.SourceVectorSearch && bestHit != nil && bestHit.EntryType == model.EntryTypeResponse:
		// 命中的存量条目本身就是成品应答时直接复用原文
		response = bestHit.Text
	default:
		responses := s.intentService.Responses(finalTag)
		if len(responses) == 0 {
			log.Warnf("[Resolver] 意图 %s 没有可用应答, 转入兜底检索", finalTag)
			return nil
		}
		response = s.pickResponse(responses)
	}

	// 办公室意图推进上下文；终结意图整体清空。
	// 推进必须用 CAS：从步骤1读取上下文到这里隔着分类与检索的网络调用，
	// 期间同一用户的并发请求可能已显式切换办公室，统计性结果不得覆盖它。
	resolvedOffice := currentOffice
	if _, isOffice := s.offices[finalTag]; isOffice {
		if s.contextService.CompareAndSetOffice(userID, currentOffice, finalTag) {
			resolvedOffice = finalTag
		} else {
			resolvedOffice = s.contextService.GetCurrentOffice(userID)
			log.Infof("[Resolver] 办公室上下文已被并发请求推进, userID: %d, 保留: %s", userID, resolvedOffice)
		}
	}
	if resolvedOffice != "" {
		s.contextService.RecordIntent(userID, resolvedOffice, finalTag, message)
	}
	if model.IsTerminalIntent(finalTag) {
		s.contextService.ResetContext(userID, "")
		resolvedOffice = ""
	}

	return &model.ResolutionResult{
		FinalTag:   finalTag,
		Confidence: confidence,
		Source:     source,
		Response:   response,
		Office:     resolvedOffice,
	}
}

// announcementResponse 优先用检索驱动的公告应答，检索不可用时退化为静态列表。
func (s *resolverService) announcementResponse(ctx context.Context, message string) string {
	hits := s.searchService.Search(ctx, message, s.cfg.SearchTopK, model.EntryTypeAnnouncement, s.cfg.VectorFloor)
	if len(hits) > 0 {
		return hits[0].Text
	}

	announcements, err := s.announcementSvc.ListActive()
	if err != nil {
		log.Errorf("[Resolver] 获取公告列表失败: %v", err)
		return s.announcementSvc.FormatList(nil)
	}
	return s.announcementSvc.FormatList(announcements)
}

// lowConfidenceSearch 是不依赖分类器的第二段独立检索。
// 先以更低门槛重试向量检索，再对候选语料做关键词扫描。
func (s *resolverService) lowConfidenceSearch(ctx context.Context, message, currentOffice string) *model.ResolutionResult {
	hits := s.searchService.Search(ctx, message, s.cfg.SearchTopK, "", s.cfg.FallbackFloor)
	if len(hits) > 0 {
		best := hits[0]
		log.Infof("[Resolver] 步骤8: 低门槛向量检索命中 tag: %s, score: %.3f", best.Tag, best.Score)
		return &model.ResolutionResult{
			FinalTag:   best.Tag,
			Confidence: best.Score,
			Source:     model.SourceVectorSearch,
			Response:   best.Text,
			Office:     currentOffice,
		}
	}

	sd, err := s.ranker.SearchCorpus(ctx, s.corpus, message, s.cfg.FallbackFloor, s.cfg.EarlyExitScore)
	if err != nil {
		log.Errorf("[Resolver] 步骤8: 语料扫描失败: %v", err)
		return nil
	}
	if sd == nil {
		return nil
	}
	log.Infof("[Resolver] 步骤8: 关键词兜底命中 slug: %s, score: %.3f", sd.Document.Slug, sd.Score)
	return &model.ResolutionResult{
		FinalTag:   sd.Document.Slug,
		Confidence: sd.Score,
		Source:     model.SourceKeywordFallback,
		Response:   fmt.Sprintf("Here is what I found about \"%s\": %s", sd.Document.Title, sd.Document.Content),
		Office:     currentOffice,
	}
}

// finalFallback 构造最终兜底应答：有办公室上下文时限定范围提示重述，否则给出通用提示。
func (s *resolverService) finalFallback(currentOffice string) *model.ResolutionResult {
	result := &model.ResolutionResult{
		Source: model.SourceNone,
		Office: currentOffice,
	}
	if currentOffice != "" {
		result.Response = fmt.Sprintf("I'm not sure I understood that. Could you rephrase your question for the %s?", s.displayName(currentOffice))
	} else {
		result.Response = "I'm sorry, I don't understand. Could you rephrase that?"
	}
	return result
}

// finish 把用户消息和机器人应答写入对话历史后返回结果。
// 写入失败不会改变应答：历史记录是尽力而为的副作用。
func (s *resolverService) finish(ctx context.Context, userID uint, message string, result *model.ResolutionResult) *model.ResolutionResult {
	now := time.Now()
	s.conversationRepo.AppendMessage(ctx, userID, model.ChatMessage{
		Sender:    model.SenderUser,
		Text:      message,
		Office:    result.Office,
		Timestamp: now,
	})
	s.conversationRepo.AppendMessage(ctx, userID, model.ChatMessage{
		Sender:    model.SenderBot,
		Text:      result.Response,
		Office:    result.Office,
		Timestamp: now,
	})
	log.Infof("[Resolver] 仲裁完成, userID: %d, tag: %s, source: %s, confidence: %.3f",
		userID, result.FinalTag, result.Source, result.Confidence)
	return result
}

// pickResponse 从静态应答列表中均匀随机抽取一条。
func (s *resolverService) pickResponse(responses []string) string {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return responses[s.rand.Intn(len(responses))]
}

// displayName 返回办公室标签的展示名，未配置时原样返回标签。
func (s *resolverService) displayName(tag string) string {
	if name, ok := s.offices[tag]; ok {
		return name
	}
	return tag
}

// containsConfirmation 判断消息中是否出现确认词（整词匹配）。
func containsConfirmation(message string) bool {
	lower := strings.ToLower(message)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}
	for _, kw := range confirmationKeywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if _, ok := wordSet[kw]; ok {
			return true
		}
	}
	return false
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
