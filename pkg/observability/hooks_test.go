package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRegisterHooks{}
	r.OnLoad(ctx, "https://example.org/register.json", 12, time.Second, nil)
	r.OnFullResolve(ctx, "ogc.geo.features", time.Second, errors.New("boom"))

	u := NoopUpliftHooks{}
	u.OnStep(ctx, "ogc.geo.features", "pre", "jq", time.Millisecond, nil)
	u.OnUplift(ctx, "ogc.geo.features", 42, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "resource")
	c.OnCacheMiss(ctx, "full")
	c.OnCacheSet(ctx, "fetch", 1024)

	h := NoopHTTPHooks{}
	h.OnResponse(ctx, "example.org", 200, time.Second)
	h.OnError(ctx, "example.org", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.IsType(t, NoopRegisterHooks{}, Register())
	assert.IsType(t, NoopUpliftHooks{}, Uplift())
	assert.IsType(t, NoopCacheHooks{}, Cache())
	assert.IsType(t, NoopHTTPHooks{}, HTTP())

	customRegister := &testRegisterHooks{}
	SetRegisterHooks(customRegister)
	assert.Same(t, customRegister, Register())

	customUplift := &testUpliftHooks{}
	SetUpliftHooks(customUplift)
	assert.Same(t, customUplift, Uplift())

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	assert.Same(t, customCache, Cache())

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	assert.Same(t, customHTTP, HTTP())

	Reset()
	assert.IsType(t, NoopRegisterHooks{}, Register())
	assert.IsType(t, NoopUpliftHooks{}, Uplift())
}

func TestSetNilHooksKeepsCurrent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testUpliftHooks{}
	SetUpliftHooks(custom)
	SetUpliftHooks(nil)
	assert.Same(t, custom, Uplift())
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testUpliftHooks{}
	SetUpliftHooks(custom)

	ctx := context.Background()
	Uplift().OnStep(ctx, "a", "post", "sparql-update", time.Millisecond, nil)
	Uplift().OnStep(ctx, "a", "post", "sparql-construct", time.Millisecond, nil)
	Uplift().OnUplift(ctx, "a", 3, time.Millisecond, nil)

	assert.Equal(t, []string{"sparql-update", "sparql-construct"}, custom.steps)
	assert.Equal(t, 1, custom.runs)
}

type testRegisterHooks struct{ NoopRegisterHooks }

type testUpliftHooks struct {
	steps []string
	runs  int
}

func (h *testUpliftHooks) OnStep(_ context.Context, _, _, kind string, _ time.Duration, _ error) {
	h.steps = append(h.steps, kind)
}

func (h *testUpliftHooks) OnUplift(context.Context, string, int, time.Duration, error) {
	h.runs++
}

type testCacheHooks struct{ NoopCacheHooks }

type testHTTPHooks struct{ NoopHTTPHooks }
