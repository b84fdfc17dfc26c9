package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/logger"
)

// IndexFlags are the registry keys every command that builds an index binds.
var IndexFlags = []string{
	config.FlagCorpus,
	config.FlagChunkSize,
	config.FlagChunkScope,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEmbeddingTimeout,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
}

// AnswerFlags are bound in addition to IndexFlags by commands that generate.
var AnswerFlags = []string{
	config.FlagTopK,
	config.FlagLLMProvider,
	config.FlagLLMModel,
	config.FlagLLMTarget,
	config.FlagLLMTimeout,
}

// Flags holds the flag targets for IndexFlags and AnswerFlags. Values are
// read back through viper so unchanged flags fall through to DOCQA_ env vars
// and config.toml.
type Flags struct {
	Corpus           string
	ChunkSize        uint
	ChunkScope       string
	TopK             uint
	EmbeddingProv    string
	EmbeddingTgt     string
	EmbeddingModel   string
	EmbeddingDims    uint
	EmbeddingTimeout time.Duration
	VectorStoreProv  string
	VectorStoreTgt   string
	LLMProvider      string
	LLMModel         string
	LLMTarget        string
	LLMTimeout       time.Duration
}

// AddIndexFlags registers IndexFlags on cmd.
func (f *Flags) AddIndexFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagCorpus, &f.Corpus)
	config.AddUintFlag(cmd, config.Flags, config.FlagChunkSize, &f.ChunkSize)
	config.AddStringFlag(cmd, config.Flags, config.FlagChunkScope, &f.ChunkScope)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &f.EmbeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &f.EmbeddingTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &f.EmbeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &f.EmbeddingDims)
	config.AddDurationFlag(cmd, config.Flags, config.FlagEmbeddingTimeout, &f.EmbeddingTimeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &f.VectorStoreProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &f.VectorStoreTgt)
}

// AddAnswerFlags registers AnswerFlags on cmd.
func (f *Flags) AddAnswerFlags(cmd *cobra.Command) {
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &f.TopK)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &f.LLMProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &f.LLMModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &f.LLMTarget)
	config.AddDurationFlag(cmd, config.Flags, config.FlagLLMTimeout, &f.LLMTimeout)
}

// LoadConfig resolves the effective config for cmd. Precedence is flags,
// then DOCQA_ environment variables, then config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, keys ...[]string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	for _, k := range keys {
		config.BindRegisteredFlags(v, cmd, config.Flags, k)
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}

// NewLogger returns the CLI logger: colorized on stderr, Debug when --debug is
// set. With --log-file every record down to Debug is also appended to that
// file as JSON. The returned func closes the file.
func NewLogger(cmd *cobra.Command) (*slog.Logger, func() error, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	term := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	path, _ := cmd.Flags().GetString("log-file")
	if path == "" {
		return term, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithJSON(true),
		logger.WithLevel(slog.LevelDebug),
		logger.WithSource(true),
		logger.WithWriter(f),
	)

	return logger.Multi(term, file), f.Close, nil
}
