package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Simulated is an in-process stand-in for environments without the
// real extraction backend. It sleeps for Delay (observing ctx) and
// echoes a small result. A password of "should_fail" forces a failure,
// which keeps the failure path exercisable end to end.
type Simulated struct {
	Delay time.Duration
}

func (s *Simulated) Extract(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if creds.Password == "should_fail" {
		return nil, errors.New("simulated extraction failure")
	}
	out := fmt.Sprintf(`{"account":%q,"excluded":%q,"bands":[]}`, creds.Email, creds.ExcludeNickname)
	return json.RawMessage(out), nil
}
