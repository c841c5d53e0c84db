package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string // workflow definition files (.hcl, .yml, .yaml)

	EventKind   string   // what happened: push, pull_request or manual
	EventBranch string   // the branch the event concerns
	Labels      []string // labels this runner advertises
	WorkDir     string   // working directory steps execute in

	LogFormat   string
	LogLevel    string
	StatusPort  int
	WorkerCount int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.EventKind == "" {
		return nil, errors.New("EventKind is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
