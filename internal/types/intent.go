// Package types holds the core data model shared by every layer of the
// AI step engine: intents, values, options and the error taxonomy.
package types

// Family groups an IntentKind into one of the three closed families
// described in spec.md §3.
type Family string

const (
	FamilyAction    Family = "action"
	FamilyAssertion Family = "assertion"
	FamilyQuery     Family = "query"
)

// IntentKind is the closed set of ~80 intents the grammar can produce.
// Only representative members of each family are enumerated; the set is
// closed by construction (see grammar.Registry) so new kinds require a
// source change, never a runtime registration of arbitrary strings.
type IntentKind string

// Action family.
const (
	KindClick           IntentKind = "click"
	KindType            IntentKind = "type"
	KindSelect          IntentKind = "select"
	KindHover           IntentKind = "hover"
	KindScroll          IntentKind = "scroll"
	KindPressKey        IntentKind = "press-key"
	KindWaitSeconds      IntentKind = "wait-seconds"
	KindWaitURLChange    IntentKind = "wait-url-change"
	KindWaitTextChange   IntentKind = "wait-text-change"
	KindSwitchTab        IntentKind = "switch-tab"
	KindOpenNewTab       IntentKind = "open-new-tab"
	KindCloseTab         IntentKind = "close-tab"
	KindSwitchBrowser    IntentKind = "switch-browser"
	KindClearSession     IntentKind = "clear-session"
	KindSwitchFrame      IntentKind = "switch-frame"
	KindSwitchMainFrame  IntentKind = "switch-main-frame"
	KindSetVariable      IntentKind = "set-variable"
	KindTakeScreenshot   IntentKind = "take-screenshot"
	KindClearCookies     IntentKind = "clear-cookies"
	KindSetCookie        IntentKind = "set-cookie"
	KindSetStorageItem   IntentKind = "set-storage-item"
	KindClearStorage     IntentKind = "clear-storage"
	KindUpload           IntentKind = "upload"
	KindAPICall          IntentKind = "api-call"
	KindExecuteJS        IntentKind = "execute-js"
	KindGenerateData     IntentKind = "generate-data"
)

// Assertion family.
const (
	KindVerifyVisible         IntentKind = "verify-visible"
	KindVerifyHidden          IntentKind = "verify-hidden"
	KindVerifyText            IntentKind = "verify-text"
	KindVerifyValue           IntentKind = "verify-value"
	KindVerifyEnabled         IntentKind = "verify-enabled"
	KindVerifyChecked         IntentKind = "verify-checked"
	KindVerifyCount           IntentKind = "verify-count"
	KindVerifyContains        IntentKind = "verify-contains"
	KindVerifyURL             IntentKind = "verify-url"
	KindVerifyTitle           IntentKind = "verify-title"
	KindVerifyAttribute       IntentKind = "verify-attribute"
	KindVerifyCSS             IntentKind = "verify-css"
	KindVerifyMatches         IntentKind = "verify-matches"
	KindVerifySelectedOption  IntentKind = "verify-selected-option"
	KindVerifyDropdownOptions IntentKind = "verify-dropdown-options"
	KindVerifyURLParam        IntentKind = "verify-url-param"
	KindVerifyTableCell       IntentKind = "verify-table-cell"
	KindVerifyDownload        IntentKind = "verify-download"
	KindVerifyDownloadContent IntentKind = "verify-download-content"
	KindVerifyAPIResponse     IntentKind = "verify-api-response"
)

// Query family.
const (
	KindGetText           IntentKind = "get-text"
	KindGetValue          IntentKind = "get-value"
	KindGetAttribute      IntentKind = "get-attribute"
	KindGetCount          IntentKind = "get-count"
	KindGetList           IntentKind = "get-list"
	KindGetURL            IntentKind = "get-url"
	KindGetTitle          IntentKind = "get-title"
	KindCheckExists       IntentKind = "check-exists"
	KindGetURLParam       IntentKind = "get-url-param"
	KindGetTableData      IntentKind = "get-table-data"
	KindGetTableCell      IntentKind = "get-table-cell"
	KindGetTableColumn    IntentKind = "get-table-column"
	KindGetTableRowCount  IntentKind = "get-table-row-count"
	KindGetCookie         IntentKind = "get-cookie"
	KindGetStorageItem    IntentKind = "get-storage-item"
	KindGetDownloadPath   IntentKind = "get-download-path"
	KindGetAPIResponse    IntentKind = "get-api-response"
	KindEvaluateJS        IntentKind = "evaluate-js"
	KindNavigate          IntentKind = "navigate" // action family in familyOf
	KindQueryDatabase     IntentKind = "query-database"
)

// Database query/assertion, added alongside the Assertion family below.
const (
	KindVerifyDBRowCount IntentKind = "verify-db-row-count"
)

// familyOf maps every known kind to its family. Built once; queried by
// Signature checks and by the module detector.
var familyOf = map[IntentKind]Family{
	KindClick: FamilyAction, KindType: FamilyAction, KindSelect: FamilyAction,
	KindHover: FamilyAction, KindScroll: FamilyAction, KindPressKey: FamilyAction,
	KindWaitSeconds: FamilyAction, KindWaitURLChange: FamilyAction, KindWaitTextChange: FamilyAction,
	KindSwitchTab: FamilyAction, KindOpenNewTab: FamilyAction, KindCloseTab: FamilyAction,
	KindSwitchBrowser: FamilyAction, KindClearSession: FamilyAction, KindSwitchFrame: FamilyAction,
	KindSwitchMainFrame: FamilyAction, KindSetVariable: FamilyAction, KindTakeScreenshot: FamilyAction,
	KindClearCookies: FamilyAction, KindSetCookie: FamilyAction, KindSetStorageItem: FamilyAction,
	KindClearStorage: FamilyAction, KindUpload: FamilyAction, KindAPICall: FamilyAction,
	KindExecuteJS: FamilyAction, KindGenerateData: FamilyAction, KindNavigate: FamilyAction,

	KindVerifyVisible: FamilyAssertion, KindVerifyHidden: FamilyAssertion, KindVerifyText: FamilyAssertion,
	KindVerifyValue: FamilyAssertion, KindVerifyEnabled: FamilyAssertion, KindVerifyChecked: FamilyAssertion,
	KindVerifyCount: FamilyAssertion, KindVerifyContains: FamilyAssertion, KindVerifyURL: FamilyAssertion,
	KindVerifyTitle: FamilyAssertion, KindVerifyAttribute: FamilyAssertion, KindVerifyCSS: FamilyAssertion,
	KindVerifyMatches: FamilyAssertion, KindVerifySelectedOption: FamilyAssertion,
	KindVerifyDropdownOptions: FamilyAssertion, KindVerifyURLParam: FamilyAssertion,
	KindVerifyTableCell: FamilyAssertion, KindVerifyDownload: FamilyAssertion,
	KindVerifyDownloadContent: FamilyAssertion, KindVerifyAPIResponse: FamilyAssertion,
	KindVerifyDBRowCount: FamilyAssertion,

	KindGetText: FamilyQuery, KindGetValue: FamilyQuery, KindGetAttribute: FamilyQuery,
	KindGetCount: FamilyQuery, KindGetList: FamilyQuery, KindGetURL: FamilyQuery,
	KindGetTitle: FamilyQuery, KindCheckExists: FamilyQuery, KindGetURLParam: FamilyQuery,
	KindGetTableData: FamilyQuery, KindGetTableCell: FamilyQuery, KindGetTableColumn: FamilyQuery,
	KindGetTableRowCount: FamilyQuery, KindGetCookie: FamilyQuery, KindGetStorageItem: FamilyQuery,
	KindGetDownloadPath: FamilyQuery, KindGetAPIResponse: FamilyQuery, KindEvaluateJS: FamilyQuery,
	KindQueryDatabase: FamilyQuery,
}

// pageLevelKinds are intents whose effect is on the page/session rather
// than a specific element; the resolver must never be invoked for these.
var pageLevelKinds = map[IntentKind]bool{
	KindWaitSeconds: true, KindWaitURLChange: true, KindSwitchTab: true,
	KindOpenNewTab: true, KindCloseTab: true, KindSwitchBrowser: true,
	KindClearSession: true, KindSwitchMainFrame: true, KindSetVariable: true,
	KindClearCookies: true, KindSetCookie: true, KindSetStorageItem: true,
	KindClearStorage: true, KindAPICall: true, KindGenerateData: true,
	KindVerifyURL: true, KindVerifyTitle: true, KindVerifyURLParam: true,
	KindVerifyAPIResponse: true, KindGetURL: true, KindGetTitle: true,
	KindGetURLParam: true, KindGetCookie: true, KindGetStorageItem: true,
	KindGetDownloadPath: true, KindGetAPIResponse: true, KindEvaluateJS: true,
	KindExecuteJS: true, KindNavigate: true, KindSwitchFrame: true,
	KindQueryDatabase: true, KindVerifyDBRowCount: true,
}

// FamilyOf returns the family a kind belongs to and whether it is known.
func FamilyOf(k IntentKind) (Family, bool) {
	f, ok := familyOf[k]
	return f, ok
}

// IsPageLevel reports whether the resolver must be bypassed for k.
func IsPageLevel(k IntentKind) bool {
	return pageLevelKinds[k]
}

// Intent is the structured, typed meaning of one natural-language
// instruction, produced by the grammar parser. It exists only for the
// duration of one step.
type Intent struct {
	Kind              IntentKind
	TargetDescription string // free text naming the element; empty for page-level intents
	Value             Value
	Options           Options
	StoreAs           string // query "and store as" destination; required for query-family kinds
	Raw               string // the instruction text that produced this intent, post-interpolation
}

// Options is the recognised parameter mapping for a given kind, e.g.
// {force, timeout, nth, exactMatch}. Values are already type-coerced.
type Options map[string]any

// Bool returns the bool option or def if absent/wrong type.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int option or def if absent/wrong type.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return def
}

// String returns the string option or def if absent/wrong type.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}
