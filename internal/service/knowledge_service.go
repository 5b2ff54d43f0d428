// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"campus-smart-go/internal/config"
	"campus-smart-go/internal/model"
	"campus-smart-go/internal/repository"
	"campus-smart-go/pkg/kafka"
	"campus-smart-go/pkg/log"
	"campus-smart-go/pkg/storage"
	"campus-smart-go/pkg/tasks"

	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

// 允许上传的知识文件扩展名。
var supportedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".md"}

// KnowledgeService 接口定义了知识文件上传与摄取的业务操作。
// 上传只负责落盘与投递摄取任务，解析在消费端异步完成。
type KnowledgeService interface {
	Upload(ctx context.Context, file multipart.File, fileName string, fileSize int64, office string, userID uint) (*model.KnowledgeFile, error)
	ListFiles() ([]model.KnowledgeFile, error)
	DeleteFile(ctx context.Context, fileMD5 string) error
}

type knowledgeService struct {
	fileRepo     repository.KnowledgeFileRepository
	documentRepo repository.DocumentRepository
	minioCfg     config.MinIOConfig
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。
func NewKnowledgeService(fileRepo repository.KnowledgeFileRepository, documentRepo repository.DocumentRepository, minioCfg config.MinIOConfig) KnowledgeService {
	return &knowledgeService{
		fileRepo:     fileRepo,
		documentRepo: documentRepo,
		minioCfg:     minioCfg,
	}
}

// Upload 处理一次知识文件上传。
// 流程：校验类型 → 计算 MD5 去重 → 写入 MinIO → 落库 PENDING → 投递 Kafka 摄取任务。
func (s *knowledgeService) Upload(ctx context.Context, file multipart.File, fileName string, fileSize int64, office string, userID uint) (*model.KnowledgeFile, error) {
	log.Infof("[KnowledgeService] 开始处理文件上传, fileName: %s, office: %s, userID: %d", fileName, office, userID)

	// 1. 校验文件类型
	if !isSupportedFile(fileName) {
		return nil, fmt.Errorf("unsupported file type: %s", fileName)
	}

	// 2. 计算文件 MD5 并检查是否已上传过
	hasher := md5.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}
	fileMD5 := hex.EncodeToString(hasher.Sum(nil))

	existing, err := s.fileRepo.FindByMD5(fileMD5)
	if err == nil {
		log.Infof("[KnowledgeService] 文件已存在, fileMD5: %s, status: %s", fileMD5, existing.Status)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing file: %w", err)
	}

	// 3. 写入 MinIO
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	objectName := fileMD5 + "/" + fileName
	_, err = storage.MinioClient.PutObject(ctx, s.minioCfg.BucketName, objectName, file, fileSize, minio.PutObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	log.Infof("[KnowledgeService] 文件已写入对象存储, object: %s", objectName)

	// 4. 落库
	record := &model.KnowledgeFile{
		FileMD5:    fileMD5,
		FileName:   fileName,
		FileSize:   fileSize,
		Office:     office,
		Status:     model.FileStatusPending,
		UploadedBy: userID,
	}
	if err := s.fileRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	// 5. 投递摄取任务，失败时标记 FAILED 但不回滚已落库的记录
	task := tasks.FileIngestTask{
		FileMD5:  fileMD5,
		FileName: fileName,
		Office:   office,
		UserID:   userID,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		log.Errorf("[KnowledgeService] 投递摄取任务失败, fileMD5: %s, error: %v", fileMD5, err)
		if updErr := s.fileRepo.UpdateStatus(fileMD5, model.FileStatusFailed); updErr != nil {
			log.Errorf("[KnowledgeService] 更新文件状态失败, fileMD5: %s, error: %v", fileMD5, updErr)
		}
		return nil, fmt.Errorf("failed to enqueue ingest task: %w", err)
	}

	return record, nil
}

// ListFiles 返回全部知识文件记录。
func (s *knowledgeService) ListFiles() ([]model.KnowledgeFile, error) {
	return s.fileRepo.FindAll()
}

// DeleteFile 删除知识文件记录、对象存储内容与由它摄取的候选文档。
func (s *knowledgeService) DeleteFile(ctx context.Context, fileMD5 string) error {
	record, err := s.fileRepo.FindByMD5(fileMD5)
	if err != nil {
		return fmt.Errorf("failed to find file %s: %w", fileMD5, err)
	}

	objectName := record.FileMD5 + "/" + record.FileName
	if err := storage.MinioClient.RemoveObject(ctx, s.minioCfg.BucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		log.Warnf("[KnowledgeService] 删除对象存储文件失败, object: %s, error: %v", objectName, err)
	}

	// 摄取产物以文件 MD5 作为页面分组键，一并清理
	if err := s.documentRepo.DeleteByPage(record.FileMD5); err != nil {
		log.Warnf("[KnowledgeService] 删除候选文档失败, fileMD5: %s, error: %v", fileMD5, err)
	}

	return s.fileRepo.Delete(fileMD5)
}

// isSupportedFile 检查文件扩展名是否在允许列表内。
func isSupportedFile(fileName string) bool {
	lower := strings.ToLower(fileName)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
