package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/konsti/internal/assistant"
	"github.com/hyperjump/konsti/internal/cache"
	"github.com/hyperjump/konsti/internal/config"
	"github.com/hyperjump/konsti/internal/extract"
	"github.com/hyperjump/konsti/internal/indexer"
	"github.com/hyperjump/konsti/internal/keyword"
	"github.com/hyperjump/konsti/internal/llm"
	"github.com/hyperjump/konsti/internal/search"
	"github.com/hyperjump/konsti/internal/session"
	"github.com/hyperjump/konsti/internal/storage"
)

// Components holds the initialized services shared by every command.
type Components struct {
	Storage   *storage.SQLiteStorage
	Index     *keyword.BleveIndex
	Speller   *keyword.SpellChecker
	Importer  *indexer.Importer
	Responses *cache.ResponseCache
	Sessions  *session.Store
	Generator llm.Generator
	Assistant *assistant.Assistant
}

// Close releases the index and the database.
func (c *Components) Close() error {
	var errs []error
	if c.Index != nil {
		errs = append(errs, c.Index.Close())
	}
	if c.Storage != nil {
		errs = append(errs, c.Storage.Close())
	}
	return errors.Join(errs...)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	c.Index, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize article index: %w", err)
	}
	c.Speller = keyword.NewSpellChecker(c.Index)

	var backend cache.Backend = store
	if strings.EqualFold(cfg.Cache.Backend, "memory") {
		memory, err := cache.NewMemoryStore(cfg.Cache.MemorySize)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		backend = memory
	}
	c.Responses = cache.New(backend, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger))
	c.Importer = indexer.NewImporter(store, c.Index, extract.NewExtractor(),
		indexer.WithLogger(logger),
		indexer.WithVocabulary(c.Speller),
		indexer.WithResponseCache(c.Responses))

	c.Sessions, err = session.New(
		session.WithMaxTurns(cfg.Session.MaxTurns),
		session.WithGuestTTL(cfg.Session.GuestTTL),
		session.WithPurgeProbability(cfg.Session.PurgeProbability),
		session.WithTombstoneSize(cfg.Session.TombstoneSize),
		session.WithLogger(logger))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Generator, err = llm.NewGenerator(&cfg.LLM, llm.WithLogger(logger))
	if errors.Is(err, llm.ErrMissingAPIKey) {
		// Canned and cached answers keep working; generated ones report the service as unavailable.
		logger.Warn("answer generator disabled",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("api_key_env", cfg.LLM.APIKeyEnv))
		c.Generator = &llm.StaticGenerator{Err: fmt.Errorf("%s: %w", cfg.LLM.APIKeyEnv, err)}
	} else if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize answer generator: %w", err)
	}

	c.Assistant = assistant.New(
		store,
		search.NewRetriever(search.WithLogger(logger), search.WithWeights(&cfg.Retrieval)),
		c.Responses,
		c.Sessions,
		c.Generator,
		assistant.WithLogger(logger),
		assistant.WithTimeout(cfg.LLM.Timeout),
		assistant.WithWeights(&cfg.Retrieval),
		assistant.WithContextBuilder(search.NewContextBuilder(cfg.Context.MaxChars, cfg.Context.ArticleMaxChars)),
		assistant.WithSpeller(c.Speller),
		assistant.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	)
	return c, nil
}

// ensureIndexed rebuilds an empty article index from storage, e.g. after the index
// directory was removed.
func (c *Components) ensureIndexed(ctx context.Context, logger *zap.Logger) {
	n, err := c.Index.DocCount()
	if err != nil || n > 0 {
		return
	}
	count, err := c.Importer.Reindex(ctx)
	if err != nil {
		logger.Warn("article index rebuild failed", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("article index rebuilt", zap.Int("constitutions", count))
	}
}
