package executor

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aistep/internal/types"
)

// assertionEvaluator reports whether the assertion currently holds,
// along with the actual value observed (for AssertionFailedError's
// diagnostic message). A transient error (e.g. a probe timeout) should
// be reported as ok=false, err=nil — only a genuinely fatal error (a
// missing capability, an unreadable download) should be returned as err.
type assertionEvaluator func(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (ok bool, actual string, err error)

// assertionEvaluators is the assertion-family dispatch table: one
// evaluator per verify-* kind, run under runAssertion's retry/negate loop.
var assertionEvaluators = map[types.IntentKind]assertionEvaluator{
	types.KindVerifyVisible:         evalVerifyVisible,
	types.KindVerifyHidden:          evalVerifyHidden,
	types.KindVerifyText:            evalVerifyText,
	types.KindVerifyValue:           evalVerifyValue,
	types.KindVerifyEnabled:         evalVerifyEnabled,
	types.KindVerifyChecked:         evalVerifyChecked,
	types.KindVerifyCount:           evalVerifyCount,
	types.KindVerifyContains:        evalVerifyContains,
	types.KindVerifyURL:             evalVerifyURL,
	types.KindVerifyTitle:           evalVerifyTitle,
	types.KindVerifyAttribute:       evalVerifyAttribute,
	types.KindVerifyCSS:             evalVerifyCSS,
	types.KindVerifyMatches:         evalVerifyMatches,
	types.KindVerifySelectedOption:  evalVerifySelectedOption,
	types.KindVerifyDropdownOptions: evalVerifyDropdownOptions,
	types.KindVerifyURLParam:        evalVerifyURLParam,
	types.KindVerifyTableCell:       evalVerifyTableCell,
	types.KindVerifyDownload:        evalVerifyDownload,
	types.KindVerifyDownloadContent: evalVerifyDownloadContent,
	types.KindVerifyAPIResponse:     evalVerifyAPIResponse,
	types.KindVerifyDBRowCount:      evalVerifyDBRowCount,
}

// runAssertion implements spec.md §4.4's retry/negate contract: a plain
// assertion polls every ~100ms until it holds or the retry budget
// expires; a negated assertion ("never" phrasing, options["negate"])
// must hold false for the *entire* budget, since a single positive
// observation anywhere in the window means the negation didn't hold.
func (e *Executor) runAssertion(ctx context.Context, intent types.Intent, rc *RuntimeContext, handle *types.ElementHandle, ev assertionEvaluator) error {
	negate := intent.Options.Bool("negate", false)
	deadline := time.Now().Add(e.opts.AssertionRetryBudget)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var lastActual string
	for {
		ok, actual, err := ev(ctx, rc, intent, handle)
		if err != nil {
			return err
		}
		lastActual = actual

		if !negate && ok {
			return nil
		}
		if negate && ok {
			return &types.AssertionFailedError{Kind: intent.Kind, Expected: expectedLabel(intent), Actual: actual}
		}

		if time.Now().After(deadline) {
			if negate {
				return nil
			}
			return &types.AssertionFailedError{Kind: intent.Kind, Expected: expectedLabel(intent), Actual: lastActual}
		}
		select {
		case <-ctx.Done():
			return &types.TimeoutError{Operation: string(intent.Kind), BudgetMs: e.opts.AssertionRetryBudget.Milliseconds()}
		case <-ticker.C:
		}
	}
}

func expectedLabel(intent types.Intent) string {
	if intent.Options.Bool("negate", false) {
		return "not " + intent.Value.String()
	}
	return intent.Value.String()
}

func evalVerifyVisible(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "not-found", nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	err := rc.Page.WaitVisible(probeCtx, *handle, 200*time.Millisecond)
	return err == nil, "", nil
}

func evalVerifyHidden(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return true, "", nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	err := rc.Page.WaitHidden(probeCtx, *handle, 200*time.Millisecond)
	return err == nil, "", nil
}

func evalVerifyText(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	actual := elementText(ctx, rc, *handle)
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyValue(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	feat, err := rc.Page.ExtractFeatures(ctx, *handle)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(feat.Text.FormValue, intent.Value.String(), intent.Options, false), feat.Text.FormValue, nil
}

func evalVerifyEnabled(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	feat, err := rc.Page.ExtractFeatures(ctx, *handle)
	if err != nil {
		return false, "", nil
	}
	_, disabled := feat.Structural.Attributes["disabled"]
	return !disabled, "", nil
}

func evalVerifyChecked(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	feat, err := rc.Page.ExtractFeatures(ctx, *handle)
	if err != nil {
		return false, "", nil
	}
	_, checked := feat.Structural.Attributes["checked"]
	return checked, "", nil
}

func evalVerifyCount(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	nodes, err := queryCandidates(ctx, rc, intent.TargetDescription)
	if err != nil {
		return false, "", nil
	}
	actual := strconv.Itoa(len(nodes))
	return actual == strconv.Itoa(intent.Value.Int), actual, nil
}

func evalVerifyContains(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	actual := elementText(ctx, rc, *handle)
	return strings.Contains(actual, intent.Value.Str), actual, nil
}

func evalVerifyURL(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	actual, err := rc.Page.URL(ctx)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyTitle(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	actual, err := rc.Page.Title(ctx)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyAttribute(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	feat, err := rc.Page.ExtractFeatures(ctx, *handle)
	if err != nil {
		return false, "", nil
	}
	actual := feat.Structural.Attributes[intent.Options.String("name", "")]
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyCSS(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	name := intent.Options.String("name", "")
	script := `(el) => getComputedStyle(el).getPropertyValue(` + strconv.Quote(name) + `)`
	actual, err := evalOnElement(ctx, rc, *handle, script)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(strings.TrimSpace(actual), intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyMatches(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	actual := elementText(ctx, rc, *handle)
	ok, err := regexp.MatchString(intent.Value.Str, actual)
	if err != nil {
		return false, actual, err
	}
	return ok, actual, nil
}

func evalVerifySelectedOption(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	actual, err := evalOnElement(ctx, rc, *handle, `(el) => el.options[el.selectedIndex] ? el.options[el.selectedIndex].textContent : ""`)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyDropdownOptions(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	actual, err := evalOnElement(ctx, rc, *handle, `(el) => JSON.stringify(Array.from(el.options).map(o => o.textContent))`)
	if err != nil {
		return false, "", nil
	}
	return strings.Contains(actual, intent.Value.Str), actual, nil
}

func evalVerifyURLParam(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	rawURL, err := rc.Page.URL(ctx)
	if err != nil {
		return false, "", nil
	}
	actual := urlParam(rawURL, intent.Options.String("name", ""))
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyTableCell(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if handle == nil {
		return false, "", nil
	}
	row := intent.Options.Int("row", 0)
	col := intent.Options.String("column", "0")
	script := "(el) => el.rows[" + strconv.Itoa(row) + "].cells[" + tableColumnIndexExpr(col) + "].textContent"
	actual, err := evalOnElement(ctx, rc, *handle, script)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyDownload(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	path, found, err := rc.Page.DownloadPath(ctx)
	if err != nil {
		return false, "", nil
	}
	if !found {
		return false, "", nil
	}
	return matchExpected(path, intent.Value.String(), intent.Options, true), path, nil
}

func evalVerifyDownloadContent(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	path, found, err := rc.Page.DownloadPath(ctx)
	if err != nil || !found {
		return false, "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "", nil
	}
	actual := string(data)
	return strings.Contains(actual, intent.Value.Str), actual, nil
}

func evalVerifyAPIResponse(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if rc.Scenario == nil {
		return false, "", &types.InternalError{Msg: "verify-api-response requires a ScenarioContext"}
	}
	raw, ok := rc.Scenario.Get(apiResponseScenarioKey)
	if !ok {
		return false, "", &types.InternalError{Msg: "verify-api-response used before any api-call step ran"}
	}
	field := intent.Options.String("field", "status")
	actual, err := apiResponseField(raw.String(), field)
	if err != nil {
		return false, "", nil
	}
	return matchExpected(actual, intent.Value.String(), intent.Options, false), actual, nil
}

func evalVerifyDBRowCount(ctx context.Context, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (bool, string, error) {
	if rc.DB == nil {
		return false, "", &types.IntegrationError{Collaborator: "db", Cause: fmt.Errorf("no database capability configured for this scenario")}
	}
	rows, err := rc.DB.Query(ctx, intent.Options.String("query", ""))
	if err != nil {
		return false, "", &types.IntegrationError{Collaborator: "db", Cause: err}
	}
	actual := strconv.Itoa(len(rows))
	return actual == strconv.Itoa(intent.Value.Int), actual, nil
}

// matchExpected applies the trim/caseSensitive/exact options common to
// most verify-* evaluators. containsOnly forces substring matching
// regardless of the exact option (used by verify-download, whose match
// is inherently a filename substring check).
func matchExpected(actual, expected string, opts types.Options, containsOnly bool) bool {
	if opts.Bool("trim", true) {
		actual, expected = strings.TrimSpace(actual), strings.TrimSpace(expected)
	}
	if !opts.Bool("caseSensitive", false) {
		actual, expected = strings.ToLower(actual), strings.ToLower(expected)
	}
	if containsOnly || !opts.Bool("exact", true) {
		return strings.Contains(actual, expected)
	}
	return actual == expected
}
