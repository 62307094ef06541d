package tool

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/PabloBotinGP/SIENNA-PA-MCP/internal/runner"
)

type fakeExecutor struct {
	mu   sync.Mutex
	reqs []runner.Request
	res  runner.Result
	err  error
}

func (f *fakeExecutor) Execute(_ context.Context, req runner.Request) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

func (f *fakeExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeExecutor) last(t *testing.T) runner.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		t.Fatal("executor was not called")
	}
	return f.reqs[len(f.reqs)-1]
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func testJulia(t *testing.T, exec *fakeExecutor) Julia {
	t.Helper()
	return Julia{Executor: exec, Policy: &Policy{}, DefaultProject: t.TempDir()}
}
