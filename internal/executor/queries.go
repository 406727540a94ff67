package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"aistep/internal/page"
	"aistep/internal/types"
)

// queryHandlers is the query-family dispatch table. Every kind stores its
// result under intent.StoreAs via storeIfNeeded (enforced upstream at
// parse time, per grammar.ApplyClauses).
var queryHandlers = map[types.IntentKind]handlerFunc{
	types.KindGetText:         doGetText,
	types.KindGetValue:        doGetValue,
	types.KindGetAttribute:    doGetAttribute,
	types.KindGetCount:        doGetCount,
	types.KindGetList:         doGetList,
	types.KindGetURL:          doGetURL,
	types.KindGetTitle:        doGetTitle,
	types.KindCheckExists:     doCheckExists,
	types.KindGetURLParam:     doGetURLParam,
	types.KindGetTableData:    doGetTableData,
	types.KindGetTableCell:    doGetTableCell,
	types.KindGetTableColumn:  doGetTableColumn,
	types.KindGetTableRowCount: doGetTableRowCount,
	types.KindGetCookie:       doGetCookie,
	types.KindGetStorageItem:  doGetStorageItem,
	types.KindGetDownloadPath: doGetDownloadPath,
	types.KindGetAPIResponse:  doGetAPIResponse,
	types.KindEvaluateJS:      doEvaluateJS,
	types.KindQueryDatabase:   doQueryDatabase,
}

func doGetText(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	return types.StringValue(elementText(ctx, rc, *handle)), nil
}

func doGetValue(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	feat, err := rc.Page.ExtractFeatures(ctx, *handle)
	if err != nil {
		return types.Value{}, err
	}
	return types.StringValue(feat.Text.FormValue), nil
}

func doGetAttribute(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	feat, err := rc.Page.ExtractFeatures(ctx, *handle)
	if err != nil {
		return types.Value{}, err
	}
	name := intent.Options.String("name", "")
	return types.StringValue(feat.Structural.Attributes[name]), nil
}

// doGetCount and doGetList both resolve against an accessibility query
// derived from the target description, since a "count"/"list" target
// names a group of elements rather than the single handle the resolver
// ladder already produced (spec.md §4.4 treats these as page-level).
func doGetCount(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	nodes, err := queryCandidates(ctx, rc, intent.TargetDescription)
	if err != nil {
		return types.Value{}, err
	}
	return types.IntValue(len(nodes)), nil
}

func doGetList(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	nodes, err := queryCandidates(ctx, rc, intent.TargetDescription)
	if err != nil {
		return types.Value{}, err
	}
	items := make([]string, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, n.AccessibleName)
	}
	return types.Value{Kind: types.ValueJSON, JSONRaw: jsonStringArray(items)}, nil
}

func doGetURL(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	url, err := rc.Page.URL(ctx)
	if err != nil {
		return types.Value{}, err
	}
	return types.Value{Kind: types.ValueURL, Str: url}, nil
}

func doGetTitle(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	title, err := rc.Page.Title(ctx)
	if err != nil {
		return types.Value{}, err
	}
	return types.StringValue(title), nil
}

// doCheckExists only runs when the resolver already found a match —
// Execute's resolve step special-cases the not-found branch into a
// successful false result before dispatch is ever reached.
func doCheckExists(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	return types.BoolValue(handle != nil), nil
}

func doGetURLParam(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	url, err := rc.Page.URL(ctx)
	if err != nil {
		return types.Value{}, err
	}
	name := intent.Options.String("name", "")
	return types.StringValue(urlParam(url, name)), nil
}

func doGetTableData(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	const script = `(el) => JSON.stringify(Array.from(el.rows).map(r => Array.from(r.cells).map(c => c.textContent)))`
	raw, err := evalOnElement(ctx, rc, *handle, script)
	if err != nil {
		return types.Value{}, err
	}
	return types.Value{Kind: types.ValueJSON, JSONRaw: raw}, nil
}

func doGetTableCell(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	row := intent.Options.Int("row", 0)
	col := intent.Options.String("column", "0")
	script := fmt.Sprintf(`(el) => el.rows[%d].cells[%s].textContent`, row, tableColumnIndexExpr(col))
	text, err := evalOnElement(ctx, rc, *handle, script)
	if err != nil {
		return types.Value{}, err
	}
	return types.StringValue(text), nil
}

func doGetTableColumn(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	col := intent.Options.String("column", "0")
	script := fmt.Sprintf(`(el) => JSON.stringify(Array.from(el.rows).slice(1).map(r => r.cells[%s].textContent))`, tableColumnIndexExpr(col))
	raw, err := evalOnElement(ctx, rc, *handle, script)
	if err != nil {
		return types.Value{}, err
	}
	return types.Value{Kind: types.ValueJSON, JSONRaw: raw}, nil
}

func doGetTableRowCount(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if handle == nil {
		return types.Value{}, &types.ActionError{Kind: types.ActionNotFound, Target: intent.TargetDescription}
	}
	text, err := evalOnElement(ctx, rc, *handle, `(el) => String(el.rows.length)`)
	if err != nil {
		return types.Value{}, err
	}
	n, _ := strconv.Atoi(text)
	return types.IntValue(n), nil
}

func doGetCookie(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	name := intent.Options.String("name", "")
	cookie, found, err := rc.Page.GetCookie(ctx, name)
	if err != nil {
		return types.Value{}, err
	}
	if !found {
		return types.StringValue(""), nil
	}
	return types.StringValue(cookie.Value), nil
}

func doGetStorageItem(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	kind := storageKindFrom(intent.Options.String("storageKind", "local"))
	name := intent.Options.String("name", "")
	value, found, err := rc.Page.GetStorageItem(ctx, kind, name)
	if err != nil {
		return types.Value{}, err
	}
	if !found {
		return types.StringValue(""), nil
	}
	return types.StringValue(value), nil
}

func doGetDownloadPath(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	path, found, err := rc.Page.DownloadPath(ctx)
	if err != nil {
		return types.Value{}, err
	}
	if !found {
		return types.Value{}, &types.TimeoutError{Operation: "get-download-path"}
	}
	return types.StringValue(path), nil
}

func doGetAPIResponse(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if rc.Scenario == nil {
		return types.Value{}, &types.InternalError{Msg: "get-api-response requires a ScenarioContext"}
	}
	raw, ok := rc.Scenario.Get(apiResponseScenarioKey)
	if !ok {
		return types.Value{}, &types.InternalError{Msg: "get-api-response used before any api-call step ran"}
	}
	field := intent.Options.String("field", "body")
	val, err := apiResponseField(raw.String(), field)
	if err != nil {
		return types.Value{}, err
	}
	return types.StringValue(val), nil
}

// doQueryDatabase runs a read query against the configured database
// capability and stores the result set as JSON rows, the db-backed
// counterpart to the DOM table queries above (spec.md's "does not
// implement its own ... database drivers" Non-goal excludes the core
// from owning a driver, not from delegating to one through dbcap).
func doQueryDatabase(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	if rc.DB == nil {
		return types.Value{}, &types.IntegrationError{Collaborator: "db", Cause: fmt.Errorf("no database capability configured for this scenario")}
	}
	rows, err := rc.DB.Query(ctx, intent.Value.Str)
	if err != nil {
		return types.Value{}, &types.IntegrationError{Collaborator: "db", Cause: err}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return types.Value{}, &types.IntegrationError{Collaborator: "db", Cause: err}
	}
	return types.Value{Kind: types.ValueJSON, JSONRaw: string(raw)}, nil
}

func doEvaluateJS(ctx context.Context, e *Executor, rc *RuntimeContext, intent types.Intent, handle *types.ElementHandle) (types.Value, error) {
	script := intent.Value.Str
	text, err := rc.Page.Evaluate(ctx, script, nil)
	if err != nil {
		return types.Value{}, err
	}
	return types.StringValue(text), nil
}

// queryCandidates resolves a target description against the accessibility
// tree directly, for the count/list query kinds whose target names a
// group rather than a single element the resolver ladder would pick one
// of. It mirrors the resolver's rung-1 accessibility query without
// pulling in its scoring/healing machinery, which exists to pick exactly
// one candidate rather than enumerate all of them.
func queryCandidates(ctx context.Context, rc *RuntimeContext, targetDescription string) ([]page.AccessibleNode, error) {
	role, name := accessibleQueryTerms(targetDescription)
	return rc.Page.QueryAccessible(ctx, role, name)
}

// accessibleQueryTerms returns the query terms for the group queries
// above: always an empty role and the description unchanged as the name.
// An empty role matches any role, letting QueryAccessible filter on name
// alone; no role is derived from the description.
func accessibleQueryTerms(desc string) (role, name string) {
	return "", desc
}

func tableColumnIndexExpr(col string) string {
	if _, err := strconv.Atoi(col); err == nil {
		return col
	}
	return fmt.Sprintf("[...el.rows[0].cells].findIndex(c => c.textContent.trim() === %q)", col)
}

func jsonStringArray(items []string) string {
	out := "["
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += strconv.Quote(s)
	}
	return out + "]"
}
