package deps

import (
	"time"

	"github.com/halverson/repackd/internal/catalogue"
	"github.com/halverson/repackd/internal/index"
	"github.com/halverson/repackd/internal/logger"
	"github.com/halverson/repackd/internal/scheduler"
	"github.com/halverson/repackd/internal/store/sqlite"
)

type Deps struct {
	Logger      logger.Logger
	StartTime   time.Time
	Version     string
	Commit      string
	BuildDate   string
	GoVersion   string
	Store       *sqlite.Store      // Durable source/release storage
	Index       *index.Index       // In-memory search index
	Catalogue   *catalogue.Service // Title search and exact-join service
	Syncer      *scheduler.Syncer  // Source registration and sync cycles
	SyncTrigger chan struct{}      // Channel to trigger a manual sync cycle
}
