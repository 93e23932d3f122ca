package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kbfile"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/query"
)

// Loader loads the reasoner settings and a knowledge-base document
type Loader struct {
	ConfigPath        string
	KnowledgeBasePath string
	Logger            *zap.Logger
}

// Components holds everything a run needs
type Components struct {
	Config        *Reasoner
	Name          string
	KnowledgeBase *kb.KnowledgeBase
	Queries       []query.Query
}

// Load reads the files and builds the knowledge base
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Load settings
	if l.ConfigPath != "" {
		cfg, err := LoadReasoner(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		comp.Config = cfg
	} else {
		comp.Config = Default()
	}

	// Load knowledge base
	if l.KnowledgeBasePath == "" {
		comp.KnowledgeBase = kb.New(comp.Config.KBOptions(l.Logger)...)
		return comp, nil
	}
	doc, err := kbfile.Load(l.KnowledgeBasePath)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	k, qs, err := doc.Build(comp.Config.KBOptions(l.Logger)...)
	if err != nil {
		return nil, fmt.Errorf("build knowledge base %s: %w", doc.Name, err)
	}
	comp.Name = doc.Name
	comp.KnowledgeBase = k
	comp.Queries = qs
	return comp, nil
}
