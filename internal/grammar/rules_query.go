package grammar

import (
	"strings"

	"aistep/internal/types"
)

// queryRules is the representative rule set for the Query family. Every
// query kind requires an "and store as" clause, enforced by ApplyClauses
// after parsing, not by the grammar rule itself.
func queryRules() []Rule {
	return []Rule{
		mustRule("query.table_cell", `get\s+row\s+(?P<row>\d+)\s+column\s+['"](?P<col>[^'"]*)['"]\s+of\s+(?P<target>.+)`,
			types.KindGetTableCell, 12, false, func(m Match) (types.Value, types.Options, error) {
				row, err := parseIntStrict(m.Group("row"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return noValue(), types.Options{"row": row, "column": m.Group("col")}, nil
			}),

		mustRule("query.attribute", `get\s+(?:the\s+)?attribute\s+['"](?P<name>[^'"]*)['"]\s+of\s+(?P<target>.+)`,
			types.KindGetAttribute, 58, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("query.table_column", `get\s+column\s+['"](?P<col>[^'"]*)['"]\s+of\s+(?P<target>.+)`,
			types.KindGetTableColumn, 55, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"column": m.Group("col")}, nil
			}),

		mustRule("query.table_row_count", `get\s+(?:the\s+)?row\s+count\s+of\s+(?P<target>.+)`,
			types.KindGetTableRowCount, 55, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.table_data", `get\s+(?:the\s+)?(?:table\s+)?data\s+of\s+(?P<target>.+)`,
			types.KindGetTableData, 56, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.exists", `check\s+(?:if\s+)?(?P<target>.+?)\s+exists`,
			types.KindCheckExists, 58, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.text", `get\s+(?:the\s+)?text\s+of\s+(?P<target>.+)`,
			types.KindGetText, 60, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.value", `get\s+(?:the\s+)?value\s+of\s+(?P<target>.+)`,
			types.KindGetValue, 60, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.count", `get\s+(?:the\s+)?count\s+of\s+(?P<target>.+)`,
			types.KindGetCount, 60, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.list", `get\s+(?:the\s+)?list\s+of\s+(?P<target>.+)`,
			types.KindGetList, 60, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.url_param", `get\s+(?:the\s+)?url\s+param(?:eter)?\s+['"](?P<name>[^'"]*)['"]`,
			types.KindGetURLParam, 57, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("query.url", `get\s+(?:the\s+)?(?:current\s+)?url`,
			types.KindGetURL, 60, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.title", `get\s+(?:the\s+)?(?:page\s+)?title`,
			types.KindGetTitle, 60, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.cookie", `get\s+cookie\s+['"](?P<name>[^'"]*)['"]`,
			types.KindGetCookie, 57, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("query.storage_item", `get\s+(?P<kind>local|session)\s+storage\s+item\s+['"](?P<name>[^'"]*)['"]`,
			types.KindGetStorageItem, 56, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"name": m.Group("name"), "storageKind": strings.ToLower(m.Group("kind"))}, nil
			}),

		mustRule("query.download_path", `get\s+(?:the\s+)?download(?:ed\s+file)?\s+path`,
			types.KindGetDownloadPath, 60, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.api_response", `get\s+(?:the\s+)?api\s+response`,
			types.KindGetAPIResponse, 60, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("query.evaluate_js", `evaluate\s+(?:js|javascript)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindEvaluateJS, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("query.database", `query\s+(?:the\s+)?database\s+['"](?P<query>[^'"]*)['"]`,
			types.KindQueryDatabase, 16, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("query")), nil, nil
			}),
	}
}
