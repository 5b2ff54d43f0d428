package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestIntents(t *testing.T, corpus string) IntentService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))
	svc, err := NewIntentService(path)
	require.NoError(t, err)
	return svc
}

func TestIntentServiceLoadErrors(t *testing.T) {
	_, err := NewIntentService(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0o644))
	_, err = NewIntentService(badPath)
	assert.Error(t, err)

	emptyPath := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, []byte(`{"intents": []}`), 0o644))
	_, err = NewIntentService(emptyPath)
	assert.Error(t, err)
}

func TestEncodeIsBinaryBagOfWords(t *testing.T) {
	svc := loadTestIntents(t, testIntentCorpus)
	require.Greater(t, svc.VocabularySize(), 0)

	vector := svc.Encode("hello")
	require.Len(t, vector, svc.VocabularySize())

	ones := 0
	for _, v := range vector {
		assert.Contains(t, []float32{0, 1}, v)
		if v == 1 {
			ones++
		}
	}
	assert.Equal(t, 1, ones)

	// 重复词元不叠加
	assert.Equal(t, vector, svc.Encode("hello hello HELLO"))
}

func TestEncodeUnknownTokensYieldZeroVector(t *testing.T) {
	svc := loadTestIntents(t, testIntentCorpus)

	for _, v := range svc.Encode("zzzz blorp qwfp") {
		assert.Equal(t, float32(0), v)
	}
	for _, v := range svc.Encode("") {
		assert.Equal(t, float32(0), v)
	}
}

func TestEncodeIsDeterministicAcrossLoads(t *testing.T) {
	first := loadTestIntents(t, testIntentCorpus)
	second := loadTestIntents(t, testIntentCorpus)

	message := "how do i apply for admission and get my transcript"
	assert.Equal(t, first.Encode(message), second.Encode(message))
	assert.Equal(t, first.VocabularySize(), second.VocabularySize())
}

func TestResponsesAndFind(t *testing.T) {
	svc := loadTestIntents(t, testIntentCorpus)

	responses := svc.Responses("greeting")
	assert.Len(t, responses, 2)
	assert.Nil(t, svc.Responses("no_such_tag"))

	record, ok := svc.Find("registrar_office")
	require.True(t, ok)
	assert.Equal(t, "registrar_office", record.Tag)

	_, ok = svc.Find("no_such_tag")
	assert.False(t, ok)

	assert.Len(t, svc.All(), 4)
}
