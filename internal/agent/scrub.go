package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/secrets"
)

// outbound redacts secrets from content bound for the completion service.
type outbound struct {
	scrubber secrets.Scrubber
	logger   *logging.Logger
}

func (o outbound) scrub(ctx context.Context, field, content string) string {
	if o.scrubber == nil || !o.scrubber.IsEnabled() || content == "" {
		return content
	}
	res := o.scrubber.Scrub(content)
	if res.HasFindings() {
		o.logger.Warn(ctx, "redacted secrets from prompt",
			zap.String("field", field),
			zap.Strings("rules", res.RuleIDs()))
	}
	return res.Scrubbed
}
