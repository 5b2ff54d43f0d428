// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"campus-smart-go/internal/model"

	"gorm.io/gorm"
)

// AnnouncementRepository 接口定义了公告的数据操作方法。
type AnnouncementRepository interface {
	Create(announcement *model.Announcement) error
	FindByID(id uint) (*model.Announcement, error)
	FindAll() ([]model.Announcement, error)
	FindActive() ([]model.Announcement, error)
	MaxID() (uint, error)
	Update(announcement *model.Announcement) error
}

type announcementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository 创建一个新的 AnnouncementRepository 实例。
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

// Create 在数据库中插入一条新的公告记录。
func (r *announcementRepository) Create(announcement *model.Announcement) error {
	return r.db.Create(announcement).Error
}

// FindByID 根据 ID 查找一条公告。
func (r *announcementRepository) FindByID(id uint) (*model.Announcement, error) {
	var announcement model.Announcement
	err := r.db.First(&announcement, id).Error
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

// FindAll 检索所有公告记录（含已停用）。
func (r *announcementRepository) FindAll() ([]model.Announcement, error) {
	var announcements []model.Announcement
	err := r.db.Find(&announcements).Error
	return announcements, err
}

// FindActive 检索所有启用中的公告记录。
func (r *announcementRepository) FindActive() ([]model.Announcement, error) {
	var announcements []model.Announcement
	err := r.db.Where("active = ?", true).Find(&announcements).Error
	return announcements, err
}

// MaxID 返回当前最大的公告 ID，表为空时返回 0。
func (r *announcementRepository) MaxID() (uint, error) {
	var maxID uint
	err := r.db.Model(&model.Announcement{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	return maxID, err
}

// Update 更新数据库中一条已存在的公告记录。
func (r *announcementRepository) Update(announcement *model.Announcement) error {
	return r.db.Save(announcement).Error
}
