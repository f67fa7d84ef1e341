package ops

import (
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// StateOutput is the session state returned by every state-changing operation.
type StateOutput struct {
	SessionID    string        `json:"session_id"`
	ProviderName string        `json:"provider_name"`
	State        sandbox.State `json:"state"`
}

func newStateOutput(sess *sandbox.Session, st sandbox.State) *StateOutput {
	return &StateOutput{
		SessionID:    sess.ID,
		ProviderName: sess.Provider().Name(),
		State:        st,
	}
}

// CreateSessionInput contains parameters for the CreateSession operation.
type CreateSessionInput struct {
	Provider string             // optional, defaults to config default_provider
	Profiles []provider.Profile // optional, replaces the provider seed profiles
}

// CreateSession starts a new sandbox session at the provider defaults.
func CreateSession(env *Env, input CreateSessionInput) (*StateOutput, error) {
	sess, err := env.Sessions.Create(input.Provider, input.Profiles)
	if err != nil {
		return nil, err
	}
	return newStateOutput(sess, sess.State()), nil
}

// GetStateInput contains parameters for the GetState operation.
type GetStateInput struct {
	SessionID string
}

// GetState returns the current state of a session.
func GetState(env *Env, input GetStateInput) (*StateOutput, error) {
	sess, err := env.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	return newStateOutput(sess, sess.State()), nil
}

// CloseSessionInput contains parameters for the CloseSession operation.
type CloseSessionInput struct {
	SessionID string
}

// CloseSessionOutput contains the result of the CloseSession operation.
type CloseSessionOutput struct {
	Closed bool `json:"closed"`
}

// CloseSession drops a session and its history.
func CloseSession(env *Env, input CloseSessionInput) (*CloseSessionOutput, error) {
	id, err := requireID("session_id", input.SessionID)
	if err != nil {
		return nil, err
	}
	return &CloseSessionOutput{Closed: env.Sessions.Close(id)}, nil
}

// dispatch applies one action to a session and records its outcome.
func dispatch(env *Env, sessionID string, a sandbox.Action) (*StateOutput, error) {
	sess, err := env.Sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	st, err := sess.Dispatch(a)
	env.Metrics.Action(a.Name(), err)
	if err != nil {
		return nil, err
	}
	return newStateOutput(sess, st), nil
}
