package ops

import (
	"github.com/jakeklinvexgloo/phosra-sub003/internal/score"
)

// ScoresInput contains parameters for the Scores operation.
type ScoresInput struct {
	SessionID string
}

// ScoresOutput contains the result of the Scores operation.
type ScoresOutput struct {
	SessionID string               `json:"session_id"`
	Scores    []score.ProfileScore `json:"scores"`
}

// Scores rates every non-adult profile of the session against its current rules.
func Scores(env *Env, input ScoresInput) (*ScoresOutput, error) {
	sess, err := env.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	st := sess.State()
	return &ScoresOutput{
		SessionID: sess.ID,
		Scores:    score.All(sess.Provider(), st.Profiles, st.Rules),
	}, nil
}
