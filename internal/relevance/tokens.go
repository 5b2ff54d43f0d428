// Package relevance 实现了查询与候选文档之间的启发式相关性打分与排序。
// 打分过程完全确定，不依赖任何外部调用。
package relevance

import (
	"strings"
	"unicode"
)

// stopWords 是固定的停用词集合，分词后直接丢弃。
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "has": {}, "have": {}, "had": {}, "what": {},
	"when": {}, "where": {}, "who": {}, "which": {}, "why": {}, "how": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "with": {}, "from": {},
	"they": {}, "will": {}, "would": {}, "there": {}, "their": {}, "about": {},
	"into": {}, "than": {}, "then": {}, "them": {}, "were": {}, "been": {},
	"does": {}, "did": {}, "your": {}, "please": {}, "could": {}, "should": {},
}

// synonymTable 是固定的领域同义词表，键为规范词，值为其同义词集合。
// 查询词命中键或任一同义词时，整组词都进入匹配集。
var synonymTable = map[string][]string{
	"admission":    {"admissions", "apply", "applying", "application", "enroll", "enrollment", "entrance", "admit"},
	"registrar":    {"records", "transcript", "transcripts", "grades", "registration", "credential", "credentials"},
	"requirements": {"requirement", "documents", "document", "needed", "prerequisites"},
	"tuition":      {"fee", "fees", "payment", "payments", "billing", "cost"},
	"scholarship":  {"scholarships", "grant", "grants", "stipend", "aid"},
	"schedule":     {"schedules", "timetable", "calendar"},
	"exam":         {"exams", "examination", "examinations", "test", "tests"},
	"subject":      {"subjects", "course", "courses", "curriculum"},
	"account":      {"accounts", "portal", "password", "login", "email"},
	"internet":     {"wifi", "network", "connectivity"},
	"counseling":   {"counselling", "counselor", "guidance", "advice"},
	"uniform":      {"uniforms", "dress", "attire"},
	"organization": {"organizations", "club", "clubs", "society"},
	"announcement": {"announcements", "advisory", "advisories", "notice", "notices", "news"},
}

// officeKeywords 是办公室领域词集合，查询与文档同时出现任一词时给予加成。
var officeKeywords = map[string]struct{}{
	"admission": {}, "admissions": {}, "registrar": {}, "ict": {},
	"guidance": {}, "cashier": {}, "library": {}, "clinic": {},
	"scholarship": {}, "enrollment": {}, "transcript": {}, "affairs": {},
}

// Tokenize 将文本切分为小写字母数字词元，去掉停用词与长度 <=2 的词元。
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// expandSynonyms 为每个词元构造它的匹配集：词元本身，加上同义词表中命中的整组词。
func expandSynonyms(token string) map[string]struct{} {
	set := map[string]struct{}{token: {}}
	for canonical, syns := range synonymTable {
		hit := canonical == token
		if !hit {
			for _, s := range syns {
				if s == token {
					hit = true
					break
				}
			}
		}
		if hit {
			set[canonical] = struct{}{}
			for _, s := range syns {
				set[s] = struct{}{}
			}
		}
	}
	return set
}

// containsOfficeKeyword 判断词元序列中是否出现办公室领域词。
func containsOfficeKeyword(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := officeKeywords[t]; ok {
			return true
		}
	}
	return false
}
