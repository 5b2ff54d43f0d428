// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"campus-smart-go/internal/model"
	"campus-smart-go/internal/repository"
	"campus-smart-go/pkg/embedding"
	"campus-smart-go/pkg/es"
	"campus-smart-go/pkg/log"
)

// FAQService 接口定义了 FAQ 的业务操作。
// 新建与更新都会同步刷新向量索引中的 FAQ 条目。
type FAQService interface {
	Create(ctx context.Context, question, answer, office string) (*model.FAQ, error)
	Update(ctx context.Context, id uint, question, answer, office string) (*model.FAQ, error)
	ListActive() ([]model.FAQ, error)
	Delete(ctx context.Context, id uint) error
}

type faqService struct {
	faqRepo         repository.FAQRepository
	embeddingClient embedding.Client
	indexName       string
	modelVersion    string
}

// NewFAQService 创建一个新的 FAQService 实例。
func NewFAQService(faqRepo repository.FAQRepository, embeddingClient embedding.Client, indexName, modelVersion string) FAQService {
	return &faqService{
		faqRepo:         faqRepo,
		embeddingClient: embeddingClient,
		indexName:       indexName,
		modelVersion:    modelVersion,
	}
}

// Create 新建一条 FAQ 并将问题文本索引到向量检索。
func (s *faqService) Create(ctx context.Context, question, answer, office string) (*model.FAQ, error) {
	faq := &model.FAQ{
		Question: question,
		Answer:   answer,
		Office:   office,
		Active:   true,
	}
	if err := s.faqRepo.Create(faq); err != nil {
		return nil, fmt.Errorf("failed to create faq: %w", err)
	}

	s.indexFAQ(ctx, faq)
	return faq, nil
}

// Update 更新一条 FAQ 并刷新其索引条目。
func (s *faqService) Update(ctx context.Context, id uint, question, answer, office string) (*model.FAQ, error) {
	faq, err := s.faqRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to find faq %d: %w", id, err)
	}

	faq.Question = question
	faq.Answer = answer
	faq.Office = office
	if err := s.faqRepo.Update(faq); err != nil {
		return nil, fmt.Errorf("failed to update faq %d: %w", id, err)
	}

	s.indexFAQ(ctx, faq)
	return faq, nil
}

// ListActive 返回全部启用中的 FAQ。
func (s *faqService) ListActive() ([]model.FAQ, error) {
	return s.faqRepo.FindActive()
}

// Delete 删除一条 FAQ 及其索引条目。
func (s *faqService) Delete(ctx context.Context, id uint) error {
	if err := s.faqRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete faq %d: %w", id, err)
	}
	entryID := fmt.Sprintf("faq-%d", id)
	if err := es.DeleteEntry(ctx, s.indexName, entryID); err != nil {
		log.Warnf("[FAQService] 移除 FAQ 索引条目失败, id: %d, error: %v", id, err)
	}
	return nil
}

// indexFAQ 把 FAQ 的问题与答案向量化后写入知识索引，失败只记日志。
// 索引条目的 Text 存答案原文，检索命中后可直接复用。
func (s *faqService) indexFAQ(ctx context.Context, faq *model.FAQ) {
	text := faq.Question + " " + faq.Answer
	vector, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		log.Errorf("[FAQService] FAQ 向量化失败, id: %d, error: %v", faq.ID, err)
		return
	}

	entry := model.EsEntry{
		EntryID:      fmt.Sprintf("faq-%d", faq.ID),
		Tag:          faq.Office,
		EntryType:    model.EntryTypeFAQ,
		Text:         faq.Answer,
		Vector:       vector,
		ModelVersion: s.modelVersion,
	}
	if err := es.IndexEntry(ctx, s.indexName, entry); err != nil {
		log.Errorf("[FAQService] FAQ 索引失败, id: %d, error: %v", faq.ID, err)
	}
}
