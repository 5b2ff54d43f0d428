// Package pipeline 定义了知识文件摄取的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"campus-smart-go/internal/config"
	"campus-smart-go/internal/model"
	"campus-smart-go/internal/repository"
	"campus-smart-go/pkg/embedding"
	"campus-smart-go/pkg/es"
	"campus-smart-go/pkg/log"
	"campus-smart-go/pkg/storage"
	"campus-smart-go/pkg/tasks"
	"campus-smart-go/pkg/tika"

	"github.com/minio/minio-go/v7"
)

// Processor 封装了知识文件摄取的所有依赖和逻辑。
// 摄取产物有两份：候选文档表（关键词兜底检索用）和向量索引条目（相似检索用）。
type Processor struct {
	tikaClient      *tika.Client
	embeddingClient embedding.Client
	esCfg           config.ElasticsearchConfig
	minioCfg        config.MinIOConfig
	embeddingCfg    config.EmbeddingConfig
	fileRepo        repository.KnowledgeFileRepository
	documentRepo    repository.DocumentRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	tikaClient *tika.Client,
	embeddingClient embedding.Client,
	esCfg config.ElasticsearchConfig,
	minioCfg config.MinIOConfig,
	embeddingCfg config.EmbeddingConfig,
	fileRepo repository.KnowledgeFileRepository,
	documentRepo repository.DocumentRepository,
) *Processor {
	return &Processor{
		tikaClient:      tikaClient,
		embeddingClient: embeddingClient,
		esCfg:           esCfg,
		minioCfg:        minioCfg,
		embeddingCfg:    embeddingCfg,
		fileRepo:        fileRepo,
		documentRepo:    documentRepo,
	}
}

// Process 是知识文件摄取的主函数。
func (p *Processor) Process(ctx context.Context, task tasks.FileIngestTask) error {
	log.Infof("[Processor] 开始摄取文件, FileMD5: %s, FileName: %s, Office: %s", task.FileMD5, task.FileName, task.Office)

	if err := p.fileRepo.UpdateStatus(task.FileMD5, model.FileStatusProcessing); err != nil {
		log.Warnf("[Processor] 更新文件状态为 PROCESSING 失败, FileMD5: %s, error: %v", task.FileMD5, err)
	}

	if err := p.ingest(ctx, task); err != nil {
		if updErr := p.fileRepo.UpdateStatus(task.FileMD5, model.FileStatusFailed); updErr != nil {
			log.Warnf("[Processor] 更新文件状态为 FAILED 失败, FileMD5: %s, error: %v", task.FileMD5, updErr)
		}
		return err
	}

	if err := p.fileRepo.UpdateStatus(task.FileMD5, model.FileStatusCompleted); err != nil {
		log.Warnf("[Processor] 更新文件状态为 COMPLETED 失败, FileMD5: %s, error: %v", task.FileMD5, err)
	}
	log.Infof("[Processor] 文件摄取成功完成, FileMD5: %s", task.FileMD5)
	return nil
}

func (p *Processor) ingest(ctx context.Context, task tasks.FileIngestTask) error {
	// 1. 从 MinIO 下载文件
	objectName := fmt.Sprintf("%s/%s", task.FileMD5, task.FileName)
	log.Infof("[Processor] 步骤1: 从MinIO下载文件, Bucket: %s, Object: %s", p.minioCfg.BucketName, objectName)
	object, err := storage.MinioClient.GetObject(ctx, p.minioCfg.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		log.Errorf("[Processor] 从MinIO下载文件失败, Object: %s, Error: %v", objectName, err)
		return fmt.Errorf("从 MinIO 下载文件失败: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(object)
	if err != nil {
		log.Errorf("[Processor] 从MinIO对象流中读取内容失败, Error: %v", err)
		return fmt.Errorf("读取MinIO对象流失败: %w", err)
	}
	if size == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 摄取中止", task.FileName)
		return errors.New("文件内容为空")
	}

	// 2. 使用 Tika 提取文本
	log.Info("[Processor] 步骤2: 使用Tika提取文本内容")
	textContent, err := p.tikaClient.ExtractText(bytes.NewReader(buf.Bytes()), task.FileName)
	if err != nil {
		log.Errorf("[Processor] 使用Tika提取文本失败, FileName: %s, Error: %v", task.FileName, err)
		return fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	if textContent == "" {
		log.Warnf("[Processor] Tika提取的文本内容为空, 摄取中止, FileName: %s", task.FileName)
		return errors.New("提取的文本内容为空")
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	// 3. 文本切块
	chunks := p.splitText(textContent, 1000, 100)
	log.Infof("[Processor] 步骤3: 文本分块完成, 共生成 %d 个分块", len(chunks))
	if len(chunks) == 0 {
		return errors.New("未生成任何文本分块")
	}

	// 4. 写入候选文档表。文件 MD5 作为页面分组键；
	// 先清理该文件既有分块，保证重复摄取幂等
	if err := p.documentRepo.DeleteByPage(task.FileMD5); err != nil {
		log.Warnf("[Processor] 清理旧候选文档失败 (page=%s): %v", task.FileMD5, err)
	}
	title := strings.TrimSuffix(task.FileName, fileExtension(task.FileName))
	documents := make([]*model.CandidateDocument, 0, len(chunks))
	for i, chunk := range chunks {
		documents = append(documents, &model.CandidateDocument{
			Slug:    fmt.Sprintf("%s-%d", task.FileMD5, i),
			Page:    task.FileMD5,
			Title:   title,
			Content: chunk,
			Tags:    task.Office,
		})
	}
	if err := p.documentRepo.BatchCreate(documents); err != nil {
		log.Errorf("[Processor] 批量保存候选文档失败, Error: %v", err)
		return fmt.Errorf("批量保存候选文档失败: %w", err)
	}
	log.Infof("[Processor] 步骤4: 成功将 %d 个分块存入候选文档表", len(documents))

	// 5. 向量化并索引到 ES。分块以应答类型入索引，
	// 高分命中时其原文可直接作为应答复用
	for i, chunk := range chunks {
		vector, err := p.embeddingClient.CreateEmbedding(ctx, chunk)
		if err != nil {
			log.Errorf("[Processor] 分块 %d 向量化失败, Error: %v", i, err)
			return fmt.Errorf("块 %d 向量化失败: %w", i, err)
		}

		entry := model.EsEntry{
			EntryID:      fmt.Sprintf("doc-%s-%d", task.FileMD5, i),
			Tag:          task.Office,
			EntryType:    model.EntryTypeResponse,
			Text:         chunk,
			Vector:       vector,
			ModelVersion: p.embeddingCfg.Model,
		}
		if err := es.IndexEntry(ctx, p.esCfg.IndexName, entry); err != nil {
			log.Errorf("[Processor] 索引分块 %d 到Elasticsearch失败, Error: %v", i, err)
			return fmt.Errorf("索引块 %d 到 Elasticsearch 失败: %w", i, err)
		}
		log.Debugf("[Processor] 分块 %d/%d 向量化并索引成功", i+1, len(chunks))
	}
	log.Info("[Processor] 步骤5: 所有分块处理完毕")
	return nil
}

// splitText 将长文本按指定大小和重叠进行切分。
func (p *Processor) splitText(text string, chunkSize int, chunkOverlap int) []string {
	if chunkSize <= chunkOverlap {
		return p.simpleSplit(text, chunkSize)
	}

	var chunks []string
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := chunkSize - chunkOverlap
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func (p *Processor) simpleSplit(text string, chunkSize int) []string {
	var chunks []string
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func fileExtension(fileName string) string {
	if idx := strings.LastIndex(fileName, "."); idx >= 0 {
		return fileName[idx:]
	}
	return ""
}
