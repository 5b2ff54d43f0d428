package service

import (
	"context"
	"errors"
	"testing"

	"campus-smart-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryAnnouncementRepo struct {
	announcements []model.Announcement
}

func (r *memoryAnnouncementRepo) Create(announcement *model.Announcement) error {
	r.announcements = append(r.announcements, *announcement)
	return nil
}

func (r *memoryAnnouncementRepo) FindByID(id uint) (*model.Announcement, error) {
	for i := range r.announcements {
		if r.announcements[i].ID == id {
			a := r.announcements[i]
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryAnnouncementRepo) FindAll() ([]model.Announcement, error) {
	return append([]model.Announcement(nil), r.announcements...), nil
}

func (r *memoryAnnouncementRepo) FindActive() ([]model.Announcement, error) {
	var active []model.Announcement
	for _, a := range r.announcements {
		if a.Active {
			active = append(active, a)
		}
	}
	return active, nil
}

func (r *memoryAnnouncementRepo) MaxID() (uint, error) {
	var maxID uint
	for _, a := range r.announcements {
		if a.ID > maxID {
			maxID = a.ID
		}
	}
	return maxID, nil
}

func (r *memoryAnnouncementRepo) Update(announcement *model.Announcement) error {
	for i := range r.announcements {
		if r.announcements[i].ID == announcement.ID {
			r.announcements[i] = *announcement
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// offlineEmbedding 让向量化步骤直接失败，公告索引按"尽力而为"降级。
type offlineEmbedding struct{}

func (offlineEmbedding) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service offline")
}

func newAnnouncementFixture(existing ...model.Announcement) (AnnouncementService, *memoryAnnouncementRepo) {
	repo := &memoryAnnouncementRepo{announcements: existing}
	return NewAnnouncementService(repo, offlineEmbedding{}, "campus_knowledge", "test-v1"), repo
}

func TestAddAssignsNextID(t *testing.T) {
	svc, _ := newAnnouncementFixture(
		model.Announcement{ID: 3, Title: "Old", Date: "2026-01-01", Priority: model.PriorityLow, Message: "old", Active: true},
		model.Announcement{ID: 7, Title: "Older", Date: "2026-02-01", Priority: model.PriorityLow, Message: "older", Active: false},
	)

	created, err := svc.Add(context.Background(), "Midterm Schedule", "2026-09-01", "Midterm exams start next week.", model.PriorityHigh, "academics")
	require.NoError(t, err)
	assert.Equal(t, uint(8), created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, model.PriorityHigh, created.Priority)
}

func TestAddEmptyTableStartsAtOne(t *testing.T) {
	svc, repo := newAnnouncementFixture()

	created, err := svc.Add(context.Background(), "First", "2026-09-01", "First announcement.", "", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), created.ID)
	// 未指定优先级时默认 medium
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.Len(t, repo.announcements, 1)
}

func TestListActiveOrdering(t *testing.T) {
	svc, _ := newAnnouncementFixture(
		model.Announcement{ID: 1, Title: "Low", Date: "2026-01-01", Priority: model.PriorityLow, Message: "m", Active: true},
		model.Announcement{ID: 2, Title: "High new", Date: "2026-05-01", Priority: model.PriorityHigh, Message: "m", Active: true},
		model.Announcement{ID: 3, Title: "High old", Date: "2026-03-01", Priority: model.PriorityHigh, Message: "m", Active: true},
		model.Announcement{ID: 4, Title: "Medium", Date: "2026-04-01", Priority: model.PriorityMedium, Message: "m", Active: true},
		model.Announcement{ID: 5, Title: "Inactive", Date: "2026-06-01", Priority: model.PriorityHigh, Message: "m", Active: false},
	)

	listed, err := svc.ListActive()
	require.NoError(t, err)
	require.Len(t, listed, 4)

	// 优先级升序；同级内按日期字符串升序，即旧公告在前
	assert.Equal(t, "High old", listed[0].Title)
	assert.Equal(t, "High new", listed[1].Title)
	assert.Equal(t, "Medium", listed[2].Title)
	assert.Equal(t, "Low", listed[3].Title)
}

func TestDeactivate(t *testing.T) {
	svc, repo := newAnnouncementFixture(
		model.Announcement{ID: 1, Title: "A", Date: "2026-01-01", Priority: model.PriorityHigh, Message: "m", Active: true},
	)

	require.NoError(t, svc.Deactivate(context.Background(), 1))
	assert.False(t, repo.announcements[0].Active)

	listed, err := svc.ListActive()
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.Error(t, svc.Deactivate(context.Background(), 99))
}

func TestFormatList(t *testing.T) {
	svc, _ := newAnnouncementFixture()

	assert.Equal(t, "There are no active announcements at the moment.", svc.FormatList(nil))

	formatted := svc.FormatList([]model.Announcement{
		{ID: 1, Title: "Enrollment", Date: "2026-06-01", Priority: model.PriorityHigh, Message: "Enrollment opens June 1."},
		{ID: 2, Title: "Holiday", Date: "2026-06-12", Priority: model.PriorityLow, Message: "No classes on June 12."},
	})
	assert.Contains(t, formatted, "- [HIGH] Enrollment (2026-06-01): Enrollment opens June 1.")
	assert.Contains(t, formatted, "- [LOW] Holiday (2026-06-12): No classes on June 12.")
}
