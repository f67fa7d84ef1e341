package ops

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// CommitInput contains parameters for the Commit operation.
type CommitInput struct {
	SessionID string
}

// CommitOutput contains the result of the Commit operation.
type CommitOutput struct {
	SessionID  string           `json:"session_id"`
	Snapshot   sandbox.Snapshot `json:"snapshot"`
	HistoryLen int              `json:"history_len"`
	Archived   bool             `json:"archived"`
	Warning    string           `json:"warning,omitempty"`
}

// Commit promotes the pending preview into the session's profiles and appends
// a snapshot to history. With an archive database, the snapshot's manifest is
// archived as well. An archive failure does not undo the commit; it is
// reported through Warning with Archived left false.
func Commit(ctx context.Context, env *Env, input CommitInput) (_ *CommitOutput, err error) {
	_, span := tracer.Start(ctx, "ops.Commit")
	defer func() { endSpan(span, err) }()

	sess, err := env.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	providerID := string(sess.Provider().ID())
	span.SetAttributes(attribute.String("session.id", sess.ID), attribute.String("provider", providerID))

	st, err := sess.Dispatch(sandbox.Commit{})
	env.Metrics.Action(sandbox.Commit{}.Name(), err)
	if err != nil {
		return nil, err
	}
	if env.Metrics != nil {
		env.Metrics.CommitsTotal.WithLabelValues(providerID, "committed").Inc()
	}

	snap, _ := st.Latest()
	span.SetAttributes(attribute.String("snapshot.id", snap.ID))

	out := &CommitOutput{
		SessionID:  sess.ID,
		Snapshot:   snap,
		HistoryLen: len(st.History),
	}
	if env.DB != nil {
		if _, archiveErr := archiveSnapshot(env, sess.ID, snap); archiveErr != nil {
			slog.Warn("commit not archived", "session", sess.ID, "snapshot", snap.ID, "error", archiveErr)
			span.AddEvent("archive failed", trace.WithAttributes(attribute.String("error", archiveErr.Error())))
			out.Warning = "snapshot committed but not archived: " + archiveErr.Error()
		} else {
			out.Archived = true
		}
	}
	return out, nil
}

// DiscardInput contains parameters for the Discard operation.
type DiscardInput struct {
	SessionID string
}

// Discard drops the pending preview. Profiles and history are unchanged.
func Discard(env *Env, input DiscardInput) (*StateOutput, error) {
	out, err := dispatch(env, input.SessionID, sandbox.Discard{})
	if err != nil {
		return nil, err
	}
	if env.Metrics != nil {
		env.Metrics.CommitsTotal.WithLabelValues(string(out.State.Provider), "discarded").Inc()
	}
	return out, nil
}
