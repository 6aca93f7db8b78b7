package extract

import (
	"context"
	"encoding/json"
)

// Credentials carries the inputs of one extraction run.
type Credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ExcludeNickname string `json:"excludeNickname"`
}

// Extractor is the slow external operation the queue schedules. An
// implementation returns an opaque JSON result on success and a
// descriptive error on failure. It must observe ctx at its internal
// suspension points so shutdown can interrupt an in-flight run; a
// ctx-induced abort is surfaced as the ctx error.
type Extractor interface {
	Extract(ctx context.Context, creds Credentials) (json.RawMessage, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, creds Credentials) (json.RawMessage, error)

func (f Func) Extract(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	return f(ctx, creds)
}
