package commands

import (
	"errors"

	"github.com/meditationmind/bloombot/internal/database"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired   = errors.New("NAME argument required")
	ErrMemberRequired = errors.New("--guild and --user are required")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB                 database.Client
	Migrator           *migrate.Migrator
	Logger             *zap.Logger
	RebuildConcurrency int
}
