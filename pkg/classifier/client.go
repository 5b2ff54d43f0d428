// Package classifier 提供了调用意图分类模型服务的客户端。
// 模型本身是一个离线训练好的前馈网络，以 HTTP 服务方式部署；
// 本包只消费它的输出，不涉及训练过程。
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"campus-smart-go/internal/config"
	"campus-smart-go/pkg/log"
)

// Prediction 是模型服务返回的一次分类结果。
// Confidence 是 softmax 的最大概率，取值 [0,1]；Tag 来自固定的已知标签集合。
type Prediction struct {
	Tag        string             `json:"tag"`
	Confidence float64            `json:"confidence"`
	AllProbs   map[string]float64 `json:"all_probs"`
}

// Client defines the interface for an intent classifier client.
type Client interface {
	Predict(ctx context.Context, vector []float32) (*Prediction, error)
}

type httpClient struct {
	cfg    config.ClassifierConfig
	client *http.Client
}

// NewClient 创建一个新的分类器客户端实例。
func NewClient(cfg config.ClassifierConfig) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type predictRequest struct {
	Model string    `json:"model,omitempty"`
	Input []float32 `json:"input"`
}

// Predict 将词袋向量发送给模型服务并返回分类结果。
func (c *httpClient) Predict(ctx context.Context, vector []float32) (*Prediction, error) {
	log.Debugf("[ClassifierClient] 调用分类模型服务, dims: %d", len(vector))
	reqBody := predictRequest{
		Model: c.cfg.Model,
		Input: vector,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/predict", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[ClassifierClient] 调用分类模型服务失败, error: %v", err)
		return nil, fmt.Errorf("failed to call classifier api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[ClassifierClient] 分类模型服务返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("classifier api returned non-200 status: %s", resp.Status)
	}

	var prediction Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		log.Errorf("[ClassifierClient] 解析分类模型响应失败, error: %v", err)
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	if prediction.Tag == "" {
		return nil, fmt.Errorf("received empty prediction from classifier api")
	}

	return &prediction, nil
}
