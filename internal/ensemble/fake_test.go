package ensemble

import (
	"context"
	"sync"

	"github.com/platinummonkey/ocrpick/internal/ocr"
)

// fakeEngine answers Recognize from a table keyed by Params.String().
type fakeEngine struct {
	mu sync.Mutex

	texts     map[string]string
	errs      map[string]error
	panics    map[string]bool
	tokens    []ocr.Token
	tokensErr error

	recognizeCalls int
	tokenCalls     int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, _ string, params ocr.Params) (string, error) {
	f.mu.Lock()
	f.recognizeCalls++
	f.mu.Unlock()

	key := params.String()
	if f.panics[key] {
		panic("engine crashed")
	}
	if err := f.errs[key]; err != nil {
		return "", err
	}
	return f.texts[key], nil
}

func (f *fakeEngine) Tokens(context.Context, []byte, string) ([]ocr.Token, error) {
	f.mu.Lock()
	f.tokenCalls++
	f.mu.Unlock()

	if f.tokensErr != nil {
		return nil, f.tokensErr
	}
	return f.tokens, nil
}

// paramsKey returns the fakeEngine lookup key for a default-menu method.
func paramsKey(method Method) string {
	for _, entry := range DefaultMenu() {
		if entry.Method == method {
			return entry.Params.String()
		}
	}
	panic("unknown method " + string(method))
}
