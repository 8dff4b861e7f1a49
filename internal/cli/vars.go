package cli

import (
	"github.com/valter-silva-au/hooklens/internal/observability"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
)

// Service instances, set during app initialization in app.go.
var (
	Config      *models.Config
	Logger      *zap.Logger
	AlertEngine observability.AlertEngine
)
