package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIsPureAndOrderIndependent(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	cases := map[string]string{
		"How do I apply for admission?":            "admission_office",
		"I need my transcript of records":          "registrar_office",
		"the student portal is down":               "ict_office",
		"can I schedule a counseling session":      "guidance_office",
		"requirements for org accreditation":       "student_affairs_office",
		"what time does the cafeteria open":        "",
		"":                                         "",
	}

	// 多次、乱序调用结果必须一致，且不受既有上下文影响
	for i := 0; i < 3; i++ {
		for message, want := range cases {
			assert.Equal(t, want, s.Detect(message), "message=%q", message)
		}
		s.SetCurrentOffice(42, "ict_office")
	}
}

func TestDetectFirstMatchWins(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	// 同时含招生与注册处关键词，规则表中招生在前
	assert.Equal(t, "admission_office", s.Detect("admission requirements and transcript request"))
}

func TestCurrentOfficeLifecycle(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	assert.Equal(t, "", s.GetCurrentOffice(1))

	s.SetCurrentOffice(1, "registrar_office")
	assert.Equal(t, "registrar_office", s.GetCurrentOffice(1))

	s.SetCurrentOffice(1, "ict_office")
	assert.Equal(t, "ict_office", s.GetCurrentOffice(1))

	// 其他用户互不影响
	assert.Equal(t, "", s.GetCurrentOffice(2))
}

func TestCompareAndSetOffice(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	// 无上下文的用户期望空串时可写入
	assert.True(t, s.CompareAndSetOffice(20, "", "admission_office"))
	assert.Equal(t, "admission_office", s.GetCurrentOffice(20))

	// 观察值已过期时写入失败，既有状态不被覆盖
	assert.False(t, s.CompareAndSetOffice(20, "", "registrar_office"))
	assert.Equal(t, "admission_office", s.GetCurrentOffice(20))

	assert.True(t, s.CompareAndSetOffice(20, "admission_office", "registrar_office"))
	assert.Equal(t, "registrar_office", s.GetCurrentOffice(20))

	// 期望非空但用户条目不存在时同样失败
	assert.False(t, s.CompareAndSetOffice(21, "ict_office", "registrar_office"))
	assert.Equal(t, "", s.GetCurrentOffice(21))
}

func TestResetContextIsolation(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	s.SetCurrentOffice(7, "registrar_office")
	s.RecordIntent(7, "registrar_office", "transcript_request", "I need my transcript")
	s.RecordIntent(7, "ict_office", "password_reset", "reset my portal password")

	// 清除 ict 子上下文不得影响 registrar 的状态
	s.ResetContext(7, "ict_office")
	assert.Nil(t, s.GetOfficeContext(7, "ict_office"))

	kept := s.GetOfficeContext(7, "registrar_office")
	require.NotNil(t, kept)
	assert.Equal(t, "transcript_request", kept.LastIntent)
	assert.Equal(t, []string{"I need my transcript"}, kept.History)

	// ict 不是当前办公室，currentOffice 保持不变
	assert.Equal(t, "registrar_office", s.GetCurrentOffice(7))

	// 清除当前办公室时 currentOffice 一并清空
	s.ResetContext(7, "registrar_office")
	assert.Equal(t, "", s.GetCurrentOffice(7))
}

func TestResetContextWholeEntry(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	s.SetCurrentOffice(9, "guidance_office")
	s.RecordIntent(9, "guidance_office", "counseling", "I want to talk to a counselor")

	s.ResetContext(9, "")
	assert.Equal(t, "", s.GetCurrentOffice(9))
	assert.Nil(t, s.GetOfficeContext(9, "guidance_office"))
}

func TestRecordIntentBoundsHistory(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	for i := 0; i < perOfficeHistoryLimit+5; i++ {
		s.RecordIntent(3, "ict_office", "password_reset", fmt.Sprintf("message %d", i))
	}

	oc := s.GetOfficeContext(3, "ict_office")
	require.NotNil(t, oc)
	assert.Len(t, oc.History, perOfficeHistoryLimit)
	assert.Equal(t, fmt.Sprintf("message %d", perOfficeHistoryLimit+4), oc.History[len(oc.History)-1])
}

func TestGetOfficeContextReturnsCopy(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)
	s.RecordIntent(5, "registrar_office", "grades", "how do I correct my grades")

	oc := s.GetOfficeContext(5, "registrar_office")
	require.NotNil(t, oc)
	oc.History[0] = "mutated"
	oc.LastIntent = "mutated"

	fresh := s.GetOfficeContext(5, "registrar_office")
	assert.Equal(t, "grades", fresh.LastIntent)
	assert.Equal(t, []string{"how do I correct my grades"}, fresh.History)
}

func TestConcurrentUpdatesSameUser(t *testing.T) {
	s := NewContextService(DefaultOfficeRules)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.SetCurrentOffice(11, "ict_office")
			s.RecordIntent(11, "ict_office", "password_reset", fmt.Sprintf("attempt %d", n))
			s.GetCurrentOffice(11)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "ict_office", s.GetCurrentOffice(11))
	oc := s.GetOfficeContext(11, "ict_office")
	require.NotNil(t, oc)
	assert.Len(t, oc.History, perOfficeHistoryLimit)
}
