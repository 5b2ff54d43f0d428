// Package service 包含了应用的业务逻辑层。
package service

import (
	"strings"
	"sync"

	"campus-smart-go/pkg/log"
)

// OfficeRule 是一条办公室识别规则：消息中出现任一关键词即命中该标签。
// 规则按序求值，首个命中者生效，因此更具体的规则必须排在前面。
type OfficeRule struct {
	Tag      string
	Keywords []string
}

// DefaultOfficeRules 是固定的办公室识别规则表。
// 规则是数据而非代码分支，便于单独测试与调整顺序。
var DefaultOfficeRules = []OfficeRule{
	{Tag: "admission_office", Keywords: []string{"admission", "admissions", "enroll", "enrollment", "apply", "applicant", "entrance exam", "freshmen application"}},
	{Tag: "registrar_office", Keywords: []string{"registrar", "transcript", "form 137", "form 138", "grades", "records", "registration", "diploma", "credential"}},
	{Tag: "ict_office", Keywords: []string{"ict", "portal", "password", "wifi", "internet", "email account", "student portal", "system error"}},
	{Tag: "guidance_office", Keywords: []string{"guidance", "counseling", "counselling", "counselor", "good moral", "behavior"}},
	{Tag: "student_affairs_office", Keywords: []string{"student affairs", "organization", "org accreditation", "event permit", "uniform", "id replacement", "lost id"}},
}

// perOfficeHistoryLimit 限制每个办公室子上下文保留的消息条数。
const perOfficeHistoryLimit = 10

// contextShardCount 是用户上下文分片锁的分片数。
const contextShardCount = 32

// OfficeContext 是某个用户在单个办公室下的会话子上下文。
type OfficeContext struct {
	LastIntent string
	History    []string
}

// ContextService 跟踪每个用户当前正在咨询哪个办公室。
// 分片锁保证单个操作原子；跨越外部调用的读-改-写序列必须用
// CompareAndSetOffice 收尾，避免并发请求下的更新丢失。
// 不同用户之间相互独立。条目常驻内存，不做自动过期。
type ContextService interface {
	Detect(message string) string
	SetCurrentOffice(userID uint, tag string)
	CompareAndSetOffice(userID uint, expected, tag string) bool
	GetCurrentOffice(userID uint) string
	RecordIntent(userID uint, tag, intent, message string)
	GetOfficeContext(userID uint, tag string) *OfficeContext
	ResetContext(userID uint, tag string)
}

type userContext struct {
	currentOffice string
	offices       map[string]*OfficeContext
}

type contextShard struct {
	mu    sync.Mutex
	users map[uint]*userContext
}

type contextService struct {
	rules  []OfficeRule
	shards [contextShardCount]*contextShard
}

// NewContextService 创建一个新的 ContextService 实例。
func NewContextService(rules []OfficeRule) ContextService {
	s := &contextService{rules: rules}
	for i := range s.shards {
		s.shards[i] = &contextShard{users: make(map[uint]*userContext)}
	}
	return s
}

func (s *contextService) shard(userID uint) *contextShard {
	return s.shards[userID%contextShardCount]
}

// Detect 将消息归类到一个办公室标签，未命中任何规则时返回空串。
// 它是纯函数：相同输入永远得到相同结果，与调用顺序和既有上下文无关。
func (s *contextService) Detect(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range s.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Tag
			}
		}
	}
	return ""
}

// SetCurrentOffice 把用户的当前办公室切换为 tag。
// 用户条目与办公室子上下文按需懒创建。
func (s *contextService) SetCurrentOffice(userID uint, tag string) {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	uc, ok := sh.users[userID]
	if !ok {
		uc = &userContext{offices: make(map[string]*OfficeContext)}
		sh.users[userID] = uc
	}
	if _, ok := uc.offices[tag]; !ok {
		uc.offices[tag] = &OfficeContext{}
	}
	uc.currentOffice = tag
	log.Debugf("[ContextService] 用户 %d 当前办公室切换为 %s", userID, tag)
}

// CompareAndSetOffice 仅当用户的当前办公室仍等于 expected 时才切换为 tag，
// 返回是否写入成功。expected 为空串表示期望该用户尚无当前办公室。
// 读-改-写跨越外部调用的场景用它代替 SetCurrentOffice，
// 观察值过期时写入失败，不会覆盖期间其他请求写入的状态。
func (s *contextService) CompareAndSetOffice(userID uint, expected, tag string) bool {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	uc, ok := sh.users[userID]
	if !ok {
		if expected != "" {
			return false
		}
		uc = &userContext{offices: make(map[string]*OfficeContext)}
		sh.users[userID] = uc
	}
	if uc.currentOffice != expected {
		return false
	}
	if _, ok := uc.offices[tag]; !ok {
		uc.offices[tag] = &OfficeContext{}
	}
	uc.currentOffice = tag
	log.Debugf("[ContextService] 用户 %d 当前办公室切换为 %s", userID, tag)
	return true
}

// GetCurrentOffice 返回用户的当前办公室标签，无上下文时返回空串。
func (s *contextService) GetCurrentOffice(userID uint) string {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if uc, ok := sh.users[userID]; ok {
		return uc.currentOffice
	}
	return ""
}

// RecordIntent 在指定办公室的子上下文中记录最近意图与消息。
func (s *contextService) RecordIntent(userID uint, tag, intent, message string) {
	if tag == "" {
		return
	}
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	uc, ok := sh.users[userID]
	if !ok {
		uc = &userContext{offices: make(map[string]*OfficeContext)}
		sh.users[userID] = uc
	}
	oc, ok := uc.offices[tag]
	if !ok {
		oc = &OfficeContext{}
		uc.offices[tag] = oc
	}
	oc.LastIntent = intent
	oc.History = append(oc.History, message)
	if len(oc.History) > perOfficeHistoryLimit {
		oc.History = oc.History[len(oc.History)-perOfficeHistoryLimit:]
	}
}

// GetOfficeContext 返回用户在某办公室下子上下文的副本，不存在时返回 nil。
func (s *contextService) GetOfficeContext(userID uint, tag string) *OfficeContext {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	uc, ok := sh.users[userID]
	if !ok {
		return nil
	}
	oc, ok := uc.offices[tag]
	if !ok {
		return nil
	}
	copied := &OfficeContext{
		LastIntent: oc.LastIntent,
		History:    append([]string(nil), oc.History...),
	}
	return copied
}

// ResetContext 重置用户上下文。
// tag 非空时只清除该办公室的子上下文，其他办公室的状态保持不变；
// 若它恰好是当前办公室，则同时清空 currentOffice 指针。
// tag 为空时移除该用户的整个条目。
func (s *contextService) ResetContext(userID uint, tag string) {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if tag == "" {
		delete(sh.users, userID)
		return
	}

	uc, ok := sh.users[userID]
	if !ok {
		return
	}
	delete(uc.offices, tag)
	if uc.currentOffice == tag {
		uc.currentOffice = ""
	}
}
