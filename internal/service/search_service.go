// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"campus-smart-go/internal/model"
	"campus-smart-go/pkg/embedding"
	"campus-smart-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// SearchService 接口定义了向量相似检索操作。
// 索引不可用或查询失败时返回空列表而非错误，调用方按"无信号"处理。
type SearchService interface {
	Search(ctx context.Context, query string, topK int, entryType string, scoreThreshold float64) []model.SearchHit
}

type searchService struct {
	embeddingClient embedding.Client
	esClient        *elasticsearch.Client
	indexName       string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, esClient *elasticsearch.Client, indexName string) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		esClient:        esClient,
		indexName:       indexName,
	}
}

// Search 对知识索引执行 kNN 检索。
// entryType 非空时按条目类型过滤；scoreThreshold 大于 0 时丢弃低分命中。
func (s *searchService) Search(ctx context.Context, query string, topK int, entryType string, scoreThreshold float64) []model.SearchHit {
	if s.esClient == nil {
		log.Warnf("[SearchService] Elasticsearch 客户端未初始化, 返回空结果")
		return []model.SearchHit{}
	}

	// 1. 向量化查询
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return []model.SearchHit{}
	}

	// 2. 构建 kNN 查询
	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   queryVector,
		"k":              topK,
		"num_candidates": topK * 10,
	}
	if entryType != "" {
		knn["filter"] = map[string]interface{}{
			"term": map[string]interface{}{"entry_type": entryType},
		}
	}
	esQuery := map[string]interface{}{
		"knn":  knn,
		"size": topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		log.Errorf("[SearchService] 序列化 Elasticsearch 查询失败: %v", err)
		return []model.SearchHit{}
	}

	// 3. 执行搜索
	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[SearchService] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return []model.SearchHit{}
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return []model.SearchHit{}
	}

	// 4. 解析结果
	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID     string        `json:"_id"`
				Score  float64       `json:"_score"`
				Source model.EsEntry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		log.Errorf("[SearchService] 解析 Elasticsearch 响应失败: %v", err)
		return []model.SearchHit{}
	}

	hits := make([]model.SearchHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		if scoreThreshold > 0 && h.Score < scoreThreshold {
			continue
		}
		hits = append(hits, model.SearchHit{
			ID:        h.ID,
			Score:     h.Score,
			Text:      h.Source.Text,
			Tag:       h.Source.Tag,
			EntryType: h.Source.EntryType,
		})
	}
	log.Debugf("[SearchService] kNN 检索完成, query: '%s', hits: %d", query, len(hits))
	return hits
}
