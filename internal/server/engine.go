package server

import (
	"context"

	"github.com/wolfmanIII/elara/internal/backend"
	"github.com/wolfmanIII/elara/internal/chatbot"
	"github.com/wolfmanIII/elara/internal/extract"
	"github.com/wolfmanIII/elara/internal/indexer"
	"github.com/wolfmanIII/elara/internal/profile"
	"github.com/wolfmanIII/elara/internal/store"
)

// Service is what the HTTP handlers need from the engine. Split out so
// handler tests can run against a fake.
type Service interface {
	Ask(ctx context.Context, question string) (*chatbot.Answer, error)
	AskStream(ctx context.Context, question string, onChunk func(string)) ([]chatbot.Source, error)
	Index(ctx context.Context, opts indexer.Options) (*indexer.Summary, error)
	Status() Status
	Profiles() []profile.Info
	ActiveProfile() string
	UseProfile(name string) error
}

// Status is the engine status contract.
type Status struct {
	OK               bool          `json:"ok"`
	Profile          ProfileStatus `json:"profile"`
	Model            string        `json:"model"`
	Source           string        `json:"source"`
	TestMode         bool          `json:"test_mode"`
	OfflineFallback  bool          `json:"offline_fallback"`
	StoredDimensions []int         `json:"stored_dimensions"`
}

type ProfileStatus struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Backend string `json:"backend"`
}

// Engine wires the pipeline for the HTTP layer. The backend client is built
// per operation from the active profile, so a profile switch takes effect on
// the next request without restarting anything.
type Engine struct {
	store     *store.Store
	profiles  *profile.Manager
	extractor extract.Extractor
	docsRoot  string
}

func NewEngine(st *store.Store, profiles *profile.Manager, extractor extract.Extractor, docsRoot string) *Engine {
	return &Engine{store: st, profiles: profiles, extractor: extractor, docsRoot: docsRoot}
}

func (e *Engine) bot() (*chatbot.Chatbot, error) {
	p := e.profiles.Active()
	client, err := backend.New(p)
	if err != nil {
		return nil, err
	}
	return chatbot.New(e.store, client, p), nil
}

func (e *Engine) Ask(ctx context.Context, question string) (*chatbot.Answer, error) {
	bot, err := e.bot()
	if err != nil {
		return nil, err
	}
	return bot.Ask(ctx, question)
}

func (e *Engine) AskStream(ctx context.Context, question string, onChunk func(string)) ([]chatbot.Source, error) {
	bot, err := e.bot()
	if err != nil {
		return nil, err
	}
	return bot.AskStream(ctx, question, onChunk)
}

func (e *Engine) Index(ctx context.Context, opts indexer.Options) (*indexer.Summary, error) {
	p := e.profiles.Active()
	client, err := backend.New(p)
	if err != nil {
		return nil, err
	}
	ix := indexer.New(e.store, e.extractor, client, p)
	return ix.IndexDirectory(ctx, e.docsRoot, opts)
}

func (e *Engine) Status() Status {
	p := e.profiles.Active()
	name := e.profiles.ActiveName()

	label := p.Label
	if label == "" {
		label = name
	}

	dims, err := e.store.EmbeddingDimensions()
	if err != nil {
		dims = nil
	}

	return Status{
		OK: true,
		Profile: ProfileStatus{
			Name:    name,
			Label:   label,
			Backend: string(p.Backend),
		},
		Model:            p.ChatModel,
		Source:           string(p.Backend),
		TestMode:         p.TestMode,
		OfflineFallback:  p.OfflineFallback,
		StoredDimensions: dims,
	}
}

func (e *Engine) Profiles() []profile.Info { return e.profiles.List() }

func (e *Engine) ActiveProfile() string { return e.profiles.ActiveName() }

func (e *Engine) UseProfile(name string) error { return e.profiles.Use(name) }
