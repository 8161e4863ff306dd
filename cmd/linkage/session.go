package main

import (
	"errors"
	"fmt"

	"github.com/dhamidi/linkage/java/modules"
	"github.com/dhamidi/linkage/java/symbols"
	"github.com/dhamidi/linkage/project"
)

// session is the state one command works against: the configuration, its
// symbol table and, when asked for, the module graph.
type session struct {
	config *project.Config
	table  *symbols.Table
	graph  *modules.Graph
}

func loadConfig(flags *globalFlags) (*project.Config, error) {
	var (
		cfg *project.Config
		err error
	)
	if flags.config != "" {
		cfg, err = project.LoadFile(flags.config)
	} else {
		cfg, err = project.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openSession(flags *globalFlags) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.SymbolOptions()
	if err != nil {
		return nil, err
	}
	return &session{config: cfg, table: symbols.New(opts)}, nil
}

func (s *session) moduleGraph() (*modules.Graph, error) {
	if s.graph != nil {
		return s.graph, nil
	}
	g, err := s.config.ModuleGraph()
	if err != nil {
		return nil, fmt.Errorf("build module graph: %w", err)
	}
	s.graph = g
	return g, nil
}

// requesterModule picks the module flag over the configured one.
func (s *session) requesterModule(flag string) string {
	if flag != "" {
		return flag
	}
	return s.config.RequesterModule
}

func (s *session) Close() error {
	return s.table.Close()
}

// closeInto folds the session's close error into err.
func closeInto(s *session, err *error) {
	*err = errors.Join(*err, s.Close())
}
