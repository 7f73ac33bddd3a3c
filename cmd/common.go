/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal/cache"
	"github.com/valpere/lingobot/internal/detector"
	"github.com/valpere/lingobot/internal/generator"
	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/logger"
	"github.com/valpere/lingobot/internal/pipeline"
	"github.com/valpere/lingobot/internal/pivot"
	"github.com/valpere/lingobot/internal/store"
	"github.com/valpere/lingobot/internal/translator"
	"github.com/valpere/lingobot/internal/validator"
)

var (
	defaultOllamaModels = []string{
		"gemma2:27b", "aya:35b", "mixtral:8x7b", "qwen3:14b",
		"gemma3:12b-it-qat", "llama3.1:8b", "mistral:7b",
	}
	defaultOpenRouterModels = []string{
		"google/gemini-2.5-flash-preview:free",
		"qwen/qwen2.5-72b-instruct:free",
		"mistralai/mistral-nemo:free",
		"meta-llama/llama-3.1-8b-instruct:free",
	}
)

// memoryCacheEntries bounds the in-process hop cache.
const memoryCacheEntries = 10000

// sharedDetector builds the lingua detector on first use; loading its
// models takes seconds and most commands never need it.
type sharedDetector struct {
	once sync.Once
	det  *detector.Detector
	val  *validator.Validator
}

func (d *sharedDetector) get() *detector.Detector {
	d.once.Do(func() {
		d.det = detector.New()
		d.val = validator.New(d.det)
	})
	return d.det
}

func (d *sharedDetector) DetectTag(text string) (lang.Tag, bool) {
	return d.get().DetectTag(text)
}

func (d *sharedDetector) Check(text string, target lang.Tag) error {
	d.get()
	return d.val.Check(text, target)
}

// app holds the collaborators one command run needs.
type app struct {
	log      *zap.Logger
	detector *sharedDetector

	db      *store.Store
	closers []func() error
}

func newApp() *app {
	return &app{log: logger.L(), detector: &sharedDetector{}}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
}

// openStore opens the sqlite database once, creating its directory.
func (a *app) openStore() (*store.Store, error) {
	if a.db != nil {
		return a.db, nil
	}
	path := settings.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

// hopCache returns the cache selected by cache.backend, or nil for "none".
func (a *app) hopCache(ctx context.Context) (cache.Cache, error) {
	cc := settings.Cache
	switch cc.Backend {
	case "memory":
		return cache.NewMemory(cc.TTL, memoryCacheEntries), nil
	case "sqlite":
		db, err := a.openStore()
		if err != nil {
			return nil, err
		}
		return db, nil
	case "redis":
		r, err := cache.DialRedis(ctx, cache.RedisConfig{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			TTL:      cc.TTL,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	default:
		return nil, nil
	}
}

// buildServices constructs translation services by name, in order.
func (a *app) buildServices(names []string) ([]translator.Service, error) {
	sc := settings.Services

	ollamaModels := sc.Ollama.Models
	if len(ollamaModels) == 0 {
		ollamaModels = defaultOllamaModels
	}
	openrouterModels := sc.OpenRouter.Models
	if len(openrouterModels) == 0 {
		openrouterModels = defaultOpenRouterModels
	}

	var list []translator.Service
	for _, name := range names {
		switch name {
		case "google":
			g := translator.NewGoogle(sc.Google.Credentials, sc.Google.ProjectID)
			a.closers = append(a.closers, g.Close)
			list = append(list, g)
		case "systran":
			list = append(list, translator.NewSystran(sc.Systran.APIKey))
		case "mymemory":
			list = append(list, translator.NewMyMemory(sc.MyMemory.Email))
		case "ollama":
			list = append(list, translator.NewOllama(sc.Ollama.URL, ollamaModels))
		case "openrouter":
			list = append(list, translator.NewOpenRouter(sc.OpenRouter.APIKey, "", openrouterModels))
		default:
			a.log.Warn("unknown translation service, skipping", zap.String("service", name))
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid services configured in %v", names)
	}
	tc := settings.Translation
	for i, svc := range list {
		list[i] = translator.Limit(svc, tc.RateLimit, tc.RateBurst)
	}
	return list, nil
}

// hops builds the forward and backward translation hops: a fallback chain
// of services per direction, behind the configured cache.
func (a *app) hops(ctx context.Context) (forward, backward pivot.Hop, err error) {
	tc := settings.Translation

	chainCfg := translator.ChainConfig{
		MaxAttempts: tc.MaxAttempts,
		RetryDelay:  tc.RetryDelay,
		Timeout:     tc.Timeout,
		Style:       tc.Style,
		Logger:      a.log,
	}
	if tc.Validate {
		chainCfg.Validator = a.detector
	}
	if tc.Glossary {
		db, err := a.openStore()
		if err != nil {
			return nil, nil, err
		}
		chainCfg.Glossary = db
	}

	fwdServices, err := a.buildServices(tc.Forward)
	if err != nil {
		return nil, nil, fmt.Errorf("forward services: %w", err)
	}
	backServices, err := a.buildServices(tc.Backward)
	if err != nil {
		return nil, nil, fmt.Errorf("backward services: %w", err)
	}

	c, err := a.hopCache(ctx)
	if err != nil {
		return nil, nil, err
	}

	forward = translator.NewChain(chainCfg, fwdServices...).Hop()
	backward = translator.NewChain(chainCfg, backServices...).Hop()
	if c != nil {
		forward = cache.Hop(forward, c, a.log)
		backward = cache.Hop(backward, c, a.log)
	}
	return forward, backward, nil
}

func (a *app) generator() *generator.Adapter {
	gc := settings.Generation
	sc := settings.Services

	adapter := generator.NewAdapter(generator.Config{
		Instruction: gc.Instruction,
		Timeout:     gc.Timeout,
		Logger:      a.log,
	})
	adapter.Register(generator.Local, generator.NewOllamaBackend(sc.Ollama.GenerateModel, sc.Ollama.URL, gc.MaxTokens))
	adapter.Register(generator.Hosted, generator.NewOpenAIBackend(sc.OpenAI.APIKey, sc.OpenAI.BaseURL, sc.OpenAI.Model, gc.MaxTokens))
	return adapter
}

// pipeline wires the whole ask flow. With record set, exchanges are kept in
// the database.
func (a *app) pipeline(ctx context.Context, record bool) (*pipeline.Pipeline, error) {
	forward, backward, err := a.hops(ctx)
	if err != nil {
		return nil, err
	}

	choice, err := generator.ParseChoice(settings.Generation.Backend)
	if err != nil {
		return nil, err
	}

	cfg := pipeline.Config{
		Forward:        forward,
		Backward:       backward,
		Generator:      a.generator(),
		Detector:       a.detector,
		ChunkSize:      settings.Translation.ChunkSize,
		DefaultBackend: choice,
		Logger:         a.log,
	}
	if record {
		db, err := a.openStore()
		if err != nil {
			return nil, err
		}
		cfg.Recorder = db
	}
	return pipeline.New(cfg), nil
}

// printWarnings reports degraded steps on stderr.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
