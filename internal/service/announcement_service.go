// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"campus-smart-go/internal/model"
	"campus-smart-go/internal/repository"
	"campus-smart-go/pkg/embedding"
	"campus-smart-go/pkg/es"
	"campus-smart-go/pkg/log"
)

// AnnouncementService 接口定义了公告的业务操作。
type AnnouncementService interface {
	ListActive() ([]model.Announcement, error)
	ListAll() ([]model.Announcement, error)
	Add(ctx context.Context, title, date, message, priority, category string) (*model.Announcement, error)
	GetByID(id uint) (*model.Announcement, error)
	Deactivate(ctx context.Context, id uint) error
	FormatList(announcements []model.Announcement) string
}

type announcementService struct {
	announcementRepo repository.AnnouncementRepository
	embeddingClient  embedding.Client
	indexName        string
	modelVersion     string
}

// NewAnnouncementService 创建一个新的 AnnouncementService 实例。
func NewAnnouncementService(announcementRepo repository.AnnouncementRepository, embeddingClient embedding.Client, indexName, modelVersion string) AnnouncementService {
	return &announcementService{
		announcementRepo: announcementRepo,
		embeddingClient:  embeddingClient,
		indexName:        indexName,
		modelVersion:     modelVersion,
	}
}

// ListActive 返回启用中的公告，按优先级序号升序、同级内按日期字符串升序。
// 同级内旧公告排在前面，这与"最新在前"的展示预期相反，但排序口径是
// 既有约定的一部分，调整前需要和公告维护方对齐。
func (s *announcementService) ListActive() ([]model.Announcement, error) {
	announcements, err := s.announcementRepo.FindActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list active announcements: %w", err)
	}

	sort.SliceStable(announcements, func(i, j int) bool {
		ri, rj := announcements[i].PriorityRank(), announcements[j].PriorityRank()
		if ri != rj {
			return ri < rj
		}
		return announcements[i].Date < announcements[j].Date
	})
	return announcements, nil
}

// ListAll 返回全部公告（含已停用），供管理端使用。
func (s *announcementService) ListAll() ([]model.Announcement, error) {
	return s.announcementRepo.FindAll()
}

// Add 创建一条新公告并将其索引到向量检索。
// ID 取当前最大值加一，空表时从 1 开始；索引失败只记日志，不影响落库结果。
func (s *announcementService) Add(ctx context.Context, title, date, message, priority, category string) (*model.Announcement, error) {
	// 1. 计算下一个公告 ID
	maxID, err := s.announcementRepo.MaxID()
	if err != nil {
		return nil, fmt.Errorf("failed to get max announcement id: %w", err)
	}

	// 2. 落库
	announcement := &model.Announcement{
		ID:       maxID + 1,
		Title:    title,
		Date:     date,
		Priority: priority,
		Message:  message,
		Category: category,
		Active:   true,
	}
	if announcement.Priority == "" {
		announcement.Priority = model.PriorityMedium
	}
	if err := s.announcementRepo.Create(announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	log.Infof("[AnnouncementService] 公告已创建, id: %d, title: %s", announcement.ID, title)

	// 3. 索引到向量检索
	s.indexAnnouncement(ctx, announcement)

	return announcement, nil
}

// GetByID 根据 ID 返回公告。
func (s *announcementService) GetByID(id uint) (*model.Announcement, error) {
	return s.announcementRepo.FindByID(id)
}

// Deactivate 软删除公告：置 Active=false 并移除其向量索引条目。
func (s *announcementService) Deactivate(ctx context.Context, id uint) error {
	announcement, err := s.announcementRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("failed to find announcement %d: %w", id, err)
	}
	announcement.Active = false
	if err := s.announcementRepo.Update(announcement); err != nil {
		return fmt.Errorf("failed to deactivate announcement %d: %w", id, err)
	}

	entryID := fmt.Sprintf("announcement-%d", id)
	if err := es.DeleteEntry(ctx, s.indexName, entryID); err != nil {
		log.Warnf("[AnnouncementService] 移除公告索引条目失败, id: %d, error: %v", id, err)
	}
	return nil
}

// FormatList 把公告列表格式化为静态文本应答，作为检索不可用时的兜底。
func (s *announcementService) FormatList(announcements []model.Announcement) string {
	if len(announcements) == 0 {
		return "There are no active announcements at the moment."
	}

	var b strings.Builder
	b.WriteString("Here are the current announcements:\n")
	for _, a := range announcements {
		b.WriteString(fmt.Sprintf("- [%s] %s (%s): %s\n", strings.ToUpper(a.Priority), a.Title, a.Date, a.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

// indexAnnouncement 把公告正文向量化后写入知识索引，失败只记日志。
func (s *announcementService) indexAnnouncement(ctx context.Context, announcement *model.Announcement) {
	text := announcement.Title + ". " + announcement.Message
	vector, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		log.Errorf("[AnnouncementService] 公告向量化失败, id: %d, error: %v", announcement.ID, err)
		return
	}

	entry := model.EsEntry{
		EntryID:      fmt.Sprintf("announcement-%d", announcement.ID),
		Tag:          "announcements",
		EntryType:    model.EntryTypeAnnouncement,
		Text:         text,
		Vector:       vector,
		ModelVersion: s.modelVersion,
	}
	if err := es.IndexEntry(ctx, s.indexName, entry); err != nil {
		log.Errorf("[AnnouncementService] 公告索引失败, id: %d, error: %v", announcement.ID, err)
	}
}
