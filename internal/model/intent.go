// Package model 包含了应用的数据模型定义。
package model

// IntentRecord 代表意图语料中的一个条目。
// 语料在启动时加载一次，服务期间只读。
type IntentRecord struct {
	Tag       string   `json:"tag"`
	Patterns  []string `json:"patterns"`
	Responses []string `json:"responses"`
}

// IntentCorpus 对应 data/intents.json 的顶层结构。
type IntentCorpus struct {
	Intents []IntentRecord `json:"intents"`
}

// 会清空用户上下文的终结意图标签。
var TerminalIntentTags = map[string]struct{}{
	"greeting": {},
	"thanks":   {},
	"goodbye":  {},
	"fallback": {},
}

// IsTerminalIntent 判断一个意图是否为终结意图（问候/感谢/道别/兜底）。
func IsTerminalIntent(tag string) bool {
	_, ok := TerminalIntentTags[tag]
	return ok
}
