package executor

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aistep/internal/httpcap"
	"aistep/internal/jsvalidate"
	"aistep/internal/page"
	"aistep/internal/types"
)

// actionHandlers is the action-family dispatch table, one entry per
// spec.md §4.4 action-kind contract. Every closed action IntentKind has
// an entry; none fall through to the "no handler" InternalError.
var actionHandlers = map[types.IntentKind]handlerFunc{
	types.KindClick:           doClick,
	types.KindType:            doType,
	types.KindSelect:          doSelect,
	types.KindHover:           doHover,
	types.KindScroll:          doScroll,
	types.KindPressKey:        doPressKey,
	types.KindWaitSeconds:     doWaitSeconds,
	types.KindWaitURLChange:   doWaitURLChange,
	types.KindWaitTextChange:  doWaitTextChange,
	types.KindSwitchTab:       doSwitchTab,
	types.KindOpenNewTab:      doOpenNewTab,
	types.KindCloseTab:        doCloseTab,
	types.KindSwitchBrowser:   doSwitchBrowser,
	types.KindClearSession:    doClearSession,
	types.KindSwitchFrame:     doSwitchFrame,
	types.KindSwitchMainFrame: doSwitchMainFrame,
	types.KindSetVariable:     doSetVariable,
	types.KindTakeScreenshot:  doTakeScreenshot,
	types.KindClearCookies:    doClearCookies,
	types.KindSetCookie:       doSetCookie,
	types.KindSetStorageItem:  doSetStorageItem,
	types.KindClearStorage:    doClearStorage,
	types.KindUpload:          doUpload,
	types.KindAPICall:         doAPICall,
	types.KindExecuteJS:       doExecuteJS,
	types.KindGenerateData:    doGenerateData,
	types.KindNavigate:        doNavigate,
}

func doClick(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	opts := page.ClickOptions{
		Button:     intent.Options.String("button", "left"),
		ClickCount: intent.Options.Int("clickCount", 1),
		Force:      intent.Options.Bool("force", false),
	}
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	return noValue(), rc.Page.Click(ctx, *handle, opts)
}

func doType(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	opts := page.TypeOptions{
		ClearFirst:         intent.Options.Bool("clearFirst", true),
		DelayBetweenKeysMs: intent.Options.Int("delayBetweenKeysMs", 0),
	}
	return noValue(), rc.Page.Type(ctx, *handle, intent.Value.Str, opts)
}

func doSelect(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	return noValue(), rc.Page.Select(ctx, *handle, intent.Value.Str)
}

func doHover(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	return noValue(), rc.Page.Hover(ctx, *handle)
}

func doScroll(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	return noValue(), rc.Page.ScrollIntoView(ctx, *handle)
}

func doPressKey(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.PressKey(ctx, handle, intent.Value.Combo)
}

func doWaitSeconds(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	millis := intent.Value.Int
	if millis <= 0 {
		return noValue(), &types.ParseError{Reason: types.ParseNoMatch, Instruction: intent.Raw,
			Cause: fmt.Errorf("wait-seconds requires a positive duration")}
	}
	if millis > e.opts.MaxWaitMs {
		millis = e.opts.MaxWaitMs
	}
	select {
	case <-time.After(time.Duration(millis) * time.Millisecond):
		return noValue(), nil
	case <-ctx.Done():
		return noValue(), &types.TimeoutError{Operation: "wait-seconds", BudgetMs: int64(millis)}
	}
}

func doWaitURLChange(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	predicate := intent.Options.String("predicate", "any-change")
	initial, _ := rc.Page.URL(ctx)
	return noValue(), pollUntil(ctx, e.waitTimeout(), func() (bool, error) {
		current, err := rc.Page.URL(ctx)
		if err != nil {
			return false, err
		}
		return matchesPredicate(predicate, initial, current, intent.Value), nil
	}, "wait-url-change")
}

func doWaitTextChange(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	predicate := intent.Options.String("predicate", "any-change")
	initial := elementText(ctx, rc, *handle)
	return noValue(), pollUntil(ctx, e.waitTimeout(), func() (bool, error) {
		current := elementText(ctx, rc, *handle)
		return matchesPredicate(predicate, initial, current, intent.Value), nil
	}, "wait-text-change")
}

func doSwitchTab(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.SwitchTab(ctx, tabSelectorFrom(intent.Options))
}

func doOpenNewTab(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.OpenNewTab(ctx, intent.Value.Str)
}

func doCloseTab(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.CloseTab(ctx, tabSelectorFrom(intent.Options))
}

func tabSelectorFrom(opts types.Options) page.TabSelector {
	switch opts.String("selector", "") {
	case "latest":
		return page.TabSelector{Latest: true}
	case "main":
		return page.TabSelector{Main: true}
	case "index":
		return page.TabSelector{Index: opts.Int("index", 0), HasIndex: true}
	default:
		return page.TabSelector{Latest: true}
	}
}

// doSwitchBrowser has no direct Page-interface analogue: switching the
// underlying browser engine is a session-manager concern, one layer
// below the single-Page capability the core depends on. The adapter-
// level equivalent is resetting the current session for reuse; a
// multi-engine session manager is out of this core's contract (spec.md §6).
func doSwitchBrowser(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if intent.Options.Bool("clearState", false) {
		return noValue(), rc.Page.ResetForReuse(ctx)
	}
	return noValue(), nil
}

func doClearSession(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.ResetForReuse(ctx)
}

func doSwitchFrame(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	sel := page.FrameSelector{}
	switch intent.Options.String("selector", "") {
	case "name":
		sel.Name, sel.HasName = intent.Value.Str, true
	case "index":
		sel.Index, sel.HasIndex = intent.Value.Int, true
	default:
		sel.CSS, sel.HasCSS = intent.Value.Str, true
	}
	return noValue(), rc.Page.SwitchFrame(ctx, sel)
}

func doSwitchMainFrame(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.SwitchMainFrame(ctx)
}

func doSetVariable(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if rc.Scenario == nil {
		return noValue(), &types.InternalError{Msg: "set-variable requires a ScenarioContext"}
	}
	name := intent.Options.String("name", "")
	rc.Scenario.Set(name, toVarstoreValue(intent.Value))
	return noValue(), nil
}

func doTakeScreenshot(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	path, err := rc.Page.Screenshot(ctx, handle)
	if err != nil {
		return noValue(), err
	}
	e.log.Debug("screenshot captured", zap.String("path", path))
	return noValue(), nil
}

func doClearCookies(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return noValue(), rc.Page.ClearCookies(ctx)
}

func doSetCookie(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	name := intent.Options.String("name", "")
	return noValue(), rc.Page.SetCookie(ctx, page.Cookie{Name: name, Value: intent.Value.Str})
}

func doSetStorageItem(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	kind := storageKindFrom(intent.Options.String("storageKind", "local"))
	name := intent.Options.String("name", "")
	return noValue(), rc.Page.SetStorageItem(ctx, kind, name, intent.Value.Str)
}

func doClearStorage(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if err := rc.Page.ClearStorage(ctx, page.StorageLocal); err != nil {
		return noValue(), err
	}
	return noValue(), rc.Page.ClearStorage(ctx, page.StorageSession)
}

func storageKindFrom(s string) page.StorageKind {
	if strings.EqualFold(s, "session") {
		return page.StorageSession
	}
	return page.StorageLocal
}

func doUpload(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return noValue(), &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	return noValue(), rc.Page.Upload(ctx, *handle, intent.Value.Str)
}

func doAPICall(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if rc.HTTP == nil {
		return noValue(), &types.IntegrationError{Collaborator: "http", Cause: fmt.Errorf("no HTTP capability configured for this scenario")}
	}
	resp, err := rc.HTTP.Do(ctx, httpcap.Request{
		Method: intent.Options.String("method", "GET"),
		URL:    intent.Value.Str,
	})
	if err != nil {
		return noValue(), &types.NetworkError{URL: intent.Value.Str, Cause: err}
	}
	value := types.Value{Kind: types.ValueJSON, JSONRaw: apiResponseJSON(resp.Status, resp.Body)}
	// verify-api-response/get-api-response read this reserved scenario key
	// regardless of the call's own storeAs, per spec.md §4.4.
	if rc.Scenario != nil {
		rc.Scenario.Set(apiResponseScenarioKey, toVarstoreValue(value))
	}
	return value, nil
}

const apiResponseScenarioKey = "__apiResponse"

func apiResponseJSON(status int, body string) string {
	return fmt.Sprintf(`{"status":%d,"body":%q}`, status, body)
}

func doExecuteJS(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if err := jsvalidate.Validate(intent.Value.Str); err != nil {
		return noValue(), &types.ParseError{Reason: types.ParseNoMatch, Instruction: intent.Raw, Cause: err}
	}
	_, err := rc.Page.Evaluate(ctx, intent.Value.Str, nil)
	return noValue(), err
}

func doGenerateData(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	switch intent.Options.String("kind", "") {
	case "uuid":
		return types.StringValue(uuid.New().String()), nil
	case "timestamp":
		return types.StringValue(time.Now().UTC().Format(time.RFC3339)), nil
	case "randomstring":
		n := intent.Options.Int("len", 8)
		return types.StringValue(randomString(n)), nil
	case "randomint":
		lo, hi := intent.Options.Int("lo", 0), intent.Options.Int("hi", 0)
		if hi < lo {
			lo, hi = hi, lo
		}
		return types.IntValue(lo + rand.Intn(hi-lo+1)), nil
	case "randomemail":
		return types.StringValue(fmt.Sprintf("user%d@example.test", rand.Intn(1_000_000))), nil
	default:
		return types.Value{}, &types.InternalError{Msg: fmt.Sprintf("unknown generate-data kind %q", intent.Options.String("kind", ""))}
	}
}

const randomStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomString(n int) string {
	if n <= 0 {
		n = 8
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = randomStringAlphabet[rand.Intn(len(randomStringAlphabet))]
	}
	return string(b)
}

func doNavigate(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if e.resolver != nil {
		e.resolver.InvalidateOnNavigation()
	}
	return noValue(), rc.Page.Goto(ctx, intent.Value.Str)
}

// elementText is the executor's single source of "an element's text",
// reusing the feature extractor instead of adding a bespoke Page method.
func elementText(ctx context.Context, rc *RuntimeContext, handle types.ElementHandle) string {
	feat, err := rc.Page.ExtractFeatures(ctx, handle)
	if err != nil {
		return ""
	}
	return feat.Text.VisibleText
}

func matchesPredicate(predicate, initial, current string, expected types.Value) bool {
	switch predicate {
	case "any-change":
		return current != initial
	case "equals":
		return current == expected.Str
	case "contains":
		return strings.Contains(current, expected.Str)
	case "matches":
		ok, err := regexp.MatchString(expected.Str, current)
		return err == nil && ok
	default:
		return current != initial
	}
}

// waitTimeout is the suspend budget for wait-url-change/wait-text-change,
// distinct from the assertion retry budget (spec.md §4.4 names it
// timeoutMs per call; the grammar here does not yet capture a per-call
// override, so the step budget bounds it).
func (e *Executor) waitTimeout() time.Duration { return e.opts.StepBudget }

func pollUntil(ctx context.Context, timeout time.Duration, check func() (bool, error), op string) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := check()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return &types.TimeoutError{Operation: op, BudgetMs: timeout.Milliseconds()}
		}
		select {
		case <-ctx.Done():
			return &types.TimeoutError{Operation: op, BudgetMs: timeout.Milliseconds()}
		case <-ticker.C:
		}
	}
}
