package ops

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// PreviewInput contains parameters for the Preview operation.
type PreviewInput struct {
	SessionID string
}

// PreviewOutput contains the result of the Preview operation.
type PreviewOutput struct {
	SessionID       string                `json:"session_id"`
	Phase           sandbox.Phase         `json:"phase"`
	Applied         int                   `json:"applied"`
	Skipped         int                   `json:"skipped"`
	PlatformManaged int                   `json:"platform_managed"`
	Changes         []enforce.ChangeDelta `json:"changes"`
	Profiles        []provider.Profile    `json:"profiles"`
}

// Preview runs the enforcement engine over the session's enabled rules and
// leaves the result pending for commit or discard.
func Preview(ctx context.Context, env *Env, input PreviewInput) (_ *PreviewOutput, err error) {
	ctx, span := tracer.Start(ctx, "ops.Preview")
	defer func() { endSpan(span, err) }()

	sess, err := env.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	providerID := string(sess.Provider().ID())
	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("provider", providerID),
	)

	start := time.Now()
	st, err := sess.Preview(ctx, env.Config.PreviewDelay())
	env.Metrics.Action(sandbox.PreviewStart{}.Name(), err)
	if err != nil {
		return nil, err
	}
	env.Metrics.Action(sandbox.PreviewComplete{}.Name(), nil)

	p := st.Preview
	if env.Metrics != nil {
		env.Metrics.PreviewDuration.WithLabelValues(providerID).Observe(time.Since(start).Seconds())
	}
	env.Metrics.ObserveRun(providerID, p.Applied, p.Skipped, p.PlatformManaged, len(p.Changes))
	span.SetAttributes(
		attribute.Int("rules.applied", p.Applied),
		attribute.Int("rules.skipped", p.Skipped),
		attribute.Int("changes", len(p.Changes)),
	)

	return &PreviewOutput{
		SessionID:       sess.ID,
		Phase:           st.Phase,
		Applied:         p.Applied,
		Skipped:         p.Skipped,
		PlatformManaged: p.PlatformManaged,
		Changes:         p.Changes,
		Profiles:        p.Profiles,
	}, nil
}
