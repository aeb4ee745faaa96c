package scanner

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// zerologFrom returns the cycle logger stored in ctx, or the global logger.
func zerologFrom(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
