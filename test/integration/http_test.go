// Package integration drives the HTTP API over real storage, a real index and a
// watched drop directory.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/assistant"
	"github.com/hyperjump/konsti/internal/cache"
	"github.com/hyperjump/konsti/internal/config"
	"github.com/hyperjump/konsti/internal/extract"
	"github.com/hyperjump/konsti/internal/indexer"
	"github.com/hyperjump/konsti/internal/keyword"
	"github.com/hyperjump/konsti/internal/llm"
	"github.com/hyperjump/konsti/internal/models"
	"github.com/hyperjump/konsti/internal/search"
	"github.com/hyperjump/konsti/internal/server"
	"github.com/hyperjump/konsti/internal/session"
	"github.com/hyperjump/konsti/internal/storage"
	"github.com/hyperjump/konsti/internal/watcher"
)

const constitutionText = `CONSTITUTION DE LA RÉPUBLIQUE DE GUINÉE 2020

TITRE PREMIER : DE L'ÉTAT
Article 1 : La Guinée est une République unitaire, indivisible, laïque, démocratique et sociale.

TITRE IV : DU POUVOIR EXÉCUTIF
Article 44 : Le mandat du Président de la République est de sept ans, renouvelable une fois.
Article 45 : Le Président de la République est le chef de l'État.
`

type env struct {
	url  string
	drop string
	gen  *llm.StaticGenerator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "konsti.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "indices", "articles")
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
	cfg.Watch.Directories = []string{filepath.Join(dir, "drop")}
	config.ApplyDefaults(cfg)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755))

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	speller := keyword.NewSpellChecker(index)
	responses := cache.New(store, cache.WithTTL(cfg.Cache.TTL))
	importer := indexer.NewImporter(store, index, extract.NewExtractor(),
		indexer.WithVocabulary(speller),
		indexer.WithResponseCache(responses))
	sessions, err := session.New(session.WithMaxTurns(cfg.Session.MaxTurns), session.WithRand(func() float64 { return 0.99 }))
	require.NoError(t, err)
	gen := llm.NewStaticGenerator("Selon l'Article 44, le mandat présidentiel est de sept ans.")

	ctx, cancel := context.WithCancel(context.Background())
	w := watcher.New(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), importer,
		watcher.WithDebounce(20*time.Millisecond))
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})

	srv := server.NewServer(server.Services{
		Assistant: assistant.New(store, search.NewRetriever(), responses, sessions, gen, assistant.WithSpeller(speller)),
		Importer:  importer,
		Storage:   store,
		Index:     index,
		Responses: responses,
		Sessions:  sessions,
		Watch:     w,
	}, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &env{url: ts.URL, drop: cfg.Watch.Directories[0], gen: gen}
}

func (e *env) call(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.url+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// activeArticles runs inside require.Eventually, off the test goroutine, so it
// reports failures as -1 instead of failing the test.
func (e *env) activeArticles() int {
	resp, err := http.Get(e.url + "/api/v1/status")
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return -1
	}
	n, ok := status["active_articles"].(float64)
	if !ok {
		return -1
	}
	return int(n)
}

func (e *env) chat(t *testing.T, question string) models.Answer {
	t.Helper()
	var ans models.Answer
	code := e.call(t, http.MethodPost, "/api/v1/chat", models.ChatRequest{Question: question, SessionID: "it"}, &ans)
	require.Equal(t, http.StatusOK, code)
	return ans
}

func TestIntegration_DropDirectoryToChat(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/health", nil, nil))

	var status map[string]interface{}
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/api/v1/status", nil, &status))
	assert.Equal(t, []interface{}{e.drop}, status["watch_directories"])

	before := e.chat(t, "Quelle est la durée du mandat présidentiel ?")
	assert.Equal(t, models.AnswerFallback, before.Kind)

	path := filepath.Join(e.drop, "guinee-2020.txt")
	require.NoError(t, os.WriteFile(path, []byte(constitutionText), 0644))
	require.Eventually(t, func() bool { return e.activeArticles() == 3 }, 5*time.Second, 20*time.Millisecond)

	var list struct {
		Constitutions []models.Constitution `json:"constitutions"`
	}
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/api/v1/constitutions", nil, &list))
	require.Len(t, list.Constitutions, 1)
	assert.Equal(t, 2020, list.Constitutions[0].Year)

	first := e.chat(t, "Quelle est la durée du mandat présidentiel ?")
	require.Equal(t, models.AnswerRetrieved, first.Kind)
	assert.Contains(t, first.References(), "44")

	second := e.chat(t, "Quelle est la durée du mandat présidentiel ?")
	assert.Equal(t, models.AnswerCached, second.Kind)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, e.gen.Calls())

	var stats cache.Stats
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/api/v1/cache/stats", nil, &stats))
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)

	var found struct {
		Results []server.ArticleHit `json:"results"`
	}
	require.Equal(t, http.StatusOK, e.call(t, http.MethodGet, "/api/v1/articles/search?q=mandat", nil, &found))
	require.NotEmpty(t, found.Results)
	assert.Contains(t, found.Results[0].Article, "44")

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return e.activeArticles() == 0 }, 5*time.Second, 20*time.Millisecond)

	require.Equal(t, http.StatusOK, e.call(t, http.MethodDelete, "/api/v1/cache", nil, nil))
	after := e.chat(t, "Quelle est la durée du mandat présidentiel ?")
	assert.Equal(t, models.AnswerFallback, after.Kind)
}
