package grammar

import "aistep/internal/types"

// assertionRules is the representative rule set for the Assertion family.
func assertionRules() []Rule {
	return []Rule{
		mustRule("assertion.table_cell", `verify\s+row\s+(?P<row>\d+)\s+column\s+['"](?P<col>[^'"]*)['"]\s+of\s+(?P<target>.+?)\s+is\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyTableCell, 10, false, func(m Match) (types.Value, types.Options, error) {
				row, err := parseIntStrict(m.Group("row"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return types.StringValue(m.Group("value")), types.Options{"row": row, "column": m.Group("col")}, nil
			}),

		mustRule("assertion.count", `verify\s+(?:the\s+)?count\s+of\s+(?P<target>.+?)\s+is\s+(?P<n>\d+)`,
			types.KindVerifyCount, 12, false, func(m Match) (types.Value, types.Options, error) {
				n, err := parseIntStrict(m.Group("n"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return types.IntValue(n), nil, nil
			}),

		mustRule("assertion.attribute", `verify\s+(?:the\s+)?attribute\s+['"](?P<name>[^'"]*)['"]\s+of\s+(?P<target>.+?)\s+is\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyAttribute, 40, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("assertion.css", `verify\s+(?:the\s+)?css\s+(?:property\s+)?['"](?P<name>[^'"]*)['"]\s+of\s+(?P<target>.+?)\s+is\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyCSS, 40, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("assertion.selected_option", `verify\s+(?:the\s+)?selected\s+option\s+of\s+(?P<target>.+?)\s+is\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifySelectedOption, 40, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.dropdown_options", `verify\s+(?:the\s+)?options\s+of\s+(?P<target>.+?)\s+(?:are|is)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyDropdownOptions, 40, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.text", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+text\s+is\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyText, 43, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.value", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+(?:has\s+value|value\s+is)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyValue, 44, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.contains", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+contains\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyContains, 44, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.matches", `verify\s+(?:that\s+)?(?P<target>.+?)\s+matches\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyMatches, 44, false, func(m Match) (types.Value, types.Options, error) {
				return types.Value{Kind: types.ValueRegex, Str: m.Group("value")}, nil, nil
			}),

		mustRule("assertion.visible", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+is\s+(?:displayed|visible)`,
			types.KindVerifyVisible, 45, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("assertion.hidden", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+is\s+(?:hidden|not\s+visible)`,
			types.KindVerifyHidden, 44, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("assertion.enabled", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+is\s+enabled`,
			types.KindVerifyEnabled, 45, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("assertion.checked", `(?:verify|check)\s+(?:that\s+)?(?P<target>.+?)\s+is\s+checked`,
			types.KindVerifyChecked, 45, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("assertion.url_param", `verify\s+(?:the\s+)?url\s+param(?:eter)?\s+['"](?P<name>[^'"]*)['"]\s+is\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyURLParam, 19, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("assertion.url", `verify\s+(?:the\s+)?url\s+(?:is|equals)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyURL, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.Value{Kind: types.ValueURL, Str: m.Group("value")}, nil, nil
			}),

		mustRule("assertion.title", `verify\s+(?:the\s+)?(?:page\s+)?title\s+(?:is|equals)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindVerifyTitle, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.download", `verify\s+(?:that\s+)?(?:a\s+|the\s+)?download(?:ed\s+file)?\s+['"](?P<value>[^'"]*)['"]\s+(?:exists|completed)`,
			types.KindVerifyDownload, 18, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("assertion.download_content", `verify\s+(?:the\s+)?download(?:ed\s+file)?\s+['"](?P<value>[^'"]*)['"]\s+contains\s+['"](?P<value2>[^'"]*)['"]`,
			types.KindVerifyDownloadContent, 17, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value2")), types.Options{"path": m.Group("value")}, nil
			}),

		mustRule("assertion.api_response", `verify\s+(?:the\s+)?api\s+response\s+(?P<field>status|body)\s+is\s+['"]?(?P<value>[^'"]*?)['"]?`,
			types.KindVerifyAPIResponse, 18, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"field": m.Group("field")}, nil
			}),

		mustRule("assertion.db_row_count", `verify\s+(?:the\s+)?row\s+count\s+of\s+(?:database\s+)?query\s+['"](?P<query>[^'"]*)['"]\s+is\s+(?P<n>\d+)`,
			types.KindVerifyDBRowCount, 16, true, func(m Match) (types.Value, types.Options, error) {
				n, err := parseIntStrict(m.Group("n"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return types.IntValue(n), types.Options{"query": m.Group("query")}, nil
			}),
	}
}
