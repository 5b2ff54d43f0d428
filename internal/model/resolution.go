// Package model 包含了应用的数据模型定义。
package model

// 应答来源的取值，标记最终应答由哪条路径产生。
const (
	SourceNeuralNetwork   = "neural_network"
	SourceVectorSearch    = "vector_search"
	SourceEnsemble        = "ensemble"
	SourceKeywordFallback = "keyword_fallback"
	SourceContextSwitch   = "context_switch"
	SourceClarification   = "clarification"
	SourceNone            = "none"
)

// ResolutionResult 是单次应答仲裁的临时结果，不做持久化，
// 仅由其派生的 ChatMessage 写入对话历史。
type ResolutionResult struct {
	FinalTag   string  `json:"finalTag"`
	Confidence float64 `json:"confidence"` // [0,1]
	Source     string  `json:"source"`
	Response   string  `json:"response"`
	Office     string  `json:"office,omitempty"` // 本轮解析出的办公室标签，可为空
}
