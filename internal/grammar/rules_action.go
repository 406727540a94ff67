package grammar

import (
	"strings"

	"aistep/internal/types"
)

// actionRules is the representative rule set for the Action family,
// covering every IntentKind named in spec.md §3. Priorities follow the
// convention: more syntactically specific constructs get lower numbers.
func actionRules() []Rule {
	return []Rule{
		mustRule("action.type", `type\s+['"](?P<value>[^'"]*)['"]\s+(?:in|into)\s+(?P<target>.+)`,
			types.KindType, 20, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"clearFirst": true}, nil
			}),

		mustRule("action.select", `select\s+['"](?P<value>[^'"]*)['"]\s+from\s+(?P<target>.+)`,
			types.KindSelect, 15, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("action.press_key", `press\s+(?P<combo>[A-Za-z0-9+]+)(?:\s+on\s+(?P<target>.+))?`,
			types.KindPressKey, 12, false, func(m Match) (types.Value, types.Options, error) {
				return types.ComboValue(CanonicalizeKeyCombo(m.Group("combo"))), nil, nil
			}),

		mustRule("action.click", `click(?:\s+on)?\s+(?P<target>.+)`,
			types.KindClick, 30, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.hover", `hover(?:\s+over)?\s+(?P<target>.+)`,
			types.KindHover, 30, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.scroll", `scroll(?:\s+to)?\s+(?P<target>.+)`,
			types.KindScroll, 30, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.wait_ms", `wait\s+(?P<n>\d+)\s*(?:millisecond|milliseconds|ms)`,
			types.KindWaitSeconds, 19, true, func(m Match) (types.Value, types.Options, error) {
				n, err := parseIntStrict(m.Group("n"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return types.IntValue(n), nil, nil
			}),

		mustRule("action.wait_seconds", `wait\s+(?P<n>\d+(?:\.\d+)?)\s*(?:second|seconds|sec|secs)`,
			types.KindWaitSeconds, 20, true, func(m Match) (types.Value, types.Options, error) {
				n, err := parseFloatStrict(m.Group("n"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return types.IntValue(int(n * 1000)), nil, nil
			}),

		mustRule("action.wait_url_contains", `wait\s+until\s+the\s+url\s+contains\s+['"](?P<value>[^'"]*)['"]`,
			types.KindWaitURLChange, 14, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"predicate": "contains"}, nil
			}),

		mustRule("action.wait_url_equals", `wait\s+until\s+the\s+url\s+(?:equals|is)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindWaitURLChange, 14, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"predicate": "equals"}, nil
			}),

		mustRule("action.wait_url_matches", `wait\s+until\s+the\s+url\s+matches\s+['"](?P<value>[^'"]*)['"]`,
			types.KindWaitURLChange, 14, true, func(m Match) (types.Value, types.Options, error) {
				return types.Value{Kind: types.ValueRegex, Str: m.Group("value")}, types.Options{"predicate": "matches"}, nil
			}),

		mustRule("action.wait_url_any_change", `wait\s+until\s+the\s+url\s+changes`,
			types.KindWaitURLChange, 13, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"predicate": "any-change"}, nil
			}),

		mustRule("action.wait_text_contains", `wait\s+until\s+(?P<target>.+?)\s+text\s+contains\s+['"](?P<value>[^'"]*)['"]`,
			types.KindWaitTextChange, 14, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"predicate": "contains"}, nil
			}),

		mustRule("action.wait_text_equals", `wait\s+until\s+(?P<target>.+?)\s+text\s+(?:equals|is)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindWaitTextChange, 14, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"predicate": "equals"}, nil
			}),

		mustRule("action.wait_text_any_change", `wait\s+until\s+(?P<target>.+?)\s+text\s+changes`,
			types.KindWaitTextChange, 13, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), types.Options{"predicate": "any-change"}, nil
			}),

		mustRule("action.switch_tab", `switch\s+to\s+(?:tab\s+)?(?P<sel>\d+|latest|main)`,
			types.KindSwitchTab, 25, true, func(m Match) (types.Value, types.Options, error) {
				sel := m.Group("sel")
				if n, err := parseIntStrict(sel); err == nil {
					return noValue(), types.Options{"selector": "index", "index": n}, nil
				}
				return noValue(), types.Options{"selector": strings.ToLower(sel)}, nil
			}),

		mustRule("action.open_new_tab", `open\s+a?\s*new\s+tab(?:\s+(?:to|at)\s+['"](?P<value>[^'"]*)['"])?`,
			types.KindOpenNewTab, 25, true, func(m Match) (types.Value, types.Options, error) {
				if v := m.Group("value"); v != "" {
					return types.Value{Kind: types.ValueURL, Str: v}, nil, nil
				}
				return noValue(), nil, nil
			}),

		mustRule("action.close_tab", `close\s+(?:the\s+)?(?:current\s+)?tab(?:\s+(?P<sel>\d+|latest|main))?`,
			types.KindCloseTab, 25, true, func(m Match) (types.Value, types.Options, error) {
				if sel := m.Group("sel"); sel != "" {
					return noValue(), types.Options{"selector": strings.ToLower(sel)}, nil
				}
				return noValue(), nil, nil
			}),

		mustRule("action.switch_browser", `switch\s+(?:to\s+)?(?:browser\s+)?(?P<browser>chrome|edge|firefox|webkit|safari)(?P<clear>\s+and\s+clear\s+state)?`,
			types.KindSwitchBrowser, 20, true, func(m Match) (types.Value, types.Options, error) {
				opts := types.Options{"browserType": strings.ToLower(m.Group("browser"))}
				if m.Group("clear") != "" {
					opts["clearState"] = true
				}
				return noValue(), opts, nil
			}),

		mustRule("action.clear_session", `clear\s+(?:the\s+)?(?:browser\s+)?session`,
			types.KindClearSession, 25, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.switch_frame_name", `switch\s+to\s+frame\s+['"](?P<value>[^'"]*)['"]`,
			types.KindSwitchFrame, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"selector": "name"}, nil
			}),

		mustRule("action.switch_frame_index", `switch\s+to\s+frame\s+(?:number\s+)?(?P<n>\d+)`,
			types.KindSwitchFrame, 19, true, func(m Match) (types.Value, types.Options, error) {
				n, err := parseIntStrict(m.Group("n"))
				if err != nil {
					return types.Value{}, nil, err
				}
				return types.IntValue(n), types.Options{"selector": "index"}, nil
			}),

		mustRule("action.switch_main_frame", `switch\s+to\s+(?:the\s+)?main\s+frame`,
			types.KindSwitchMainFrame, 18, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.set_variable", `set\s+(?:the\s+)?variable\s+['"](?P<name>[^'"]*)['"]\s+to\s+['"](?P<value>[^'"]*)['"]`,
			types.KindSetVariable, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("action.take_screenshot", `take\s+a\s+screenshot(?:\s+of\s+(?P<target>.+))?`,
			types.KindTakeScreenshot, 25, false, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.clear_cookies", `clear\s+(?:all\s+)?cookies`,
			types.KindClearCookies, 25, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.set_cookie", `set\s+cookie\s+['"](?P<name>[^'"]*)['"]\s+to\s+['"](?P<value>[^'"]*)['"]`,
			types.KindSetCookie, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"name": m.Group("name")}, nil
			}),

		mustRule("action.set_storage_item", `set\s+(?P<kind>local|session)\s+storage\s+item\s+['"](?P<name>[^'"]*)['"]\s+to\s+['"](?P<value>[^'"]*)['"]`,
			types.KindSetStorageItem, 18, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), types.Options{"name": m.Group("name"), "storageKind": strings.ToLower(m.Group("kind"))}, nil
			}),

		mustRule("action.clear_storage", `clear\s+(?:all\s+)?(?:local|session)?\s*storage`,
			types.KindClearStorage, 25, true, func(m Match) (types.Value, types.Options, error) {
				return noValue(), nil, nil
			}),

		mustRule("action.upload", `upload\s+['"](?P<value>[^'"]*)['"]\s+to\s+(?P<target>.+)`,
			types.KindUpload, 18, false, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("action.api_call", `call\s+api\s+(?P<method>GET|POST|PUT|PATCH|DELETE)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindAPICall, 15, true, func(m Match) (types.Value, types.Options, error) {
				return types.Value{Kind: types.ValueURL, Str: m.Group("value")}, types.Options{"method": strings.ToUpper(m.Group("method"))}, nil
			}),

		mustRule("action.execute_js", `execute\s+(?:js|javascript)\s+['"](?P<value>[^'"]*)['"]`,
			types.KindExecuteJS, 20, true, func(m Match) (types.Value, types.Options, error) {
				return types.StringValue(m.Group("value")), nil, nil
			}),

		mustRule("action.generate_data", `generate\s+(?P<kind>uuid|timestamp|random\s*string|random\s*int|random\s*email)(?:\s*\(\s*(?P<args>[^)]*)\)\s*)?`,
			types.KindGenerateData, 15, true, func(m Match) (types.Value, types.Options, error) {
				kind := strings.ToLower(strings.Join(strings.Fields(m.Group("kind")), ""))
				opts := types.Options{"kind": kind}
				if args := strings.TrimSpace(m.Group("args")); args != "" {
					parts := strings.Split(args, ",")
					if kind == "randomint" {
						if len(parts) != 2 {
							return types.Value{}, nil, &types.ParseError{Reason: types.ParseNoMatch, Instruction: m.Instruction}
						}
						lo, err1 := parseIntStrict(parts[0])
						hi, err2 := parseIntStrict(parts[1])
						if err1 != nil || err2 != nil {
							return types.Value{}, nil, &types.ParseError{Reason: types.ParseNoMatch, Instruction: m.Instruction}
						}
						if lo > hi {
							return types.Value{}, nil, &types.ParseError{Reason: types.ParseNoMatch, Instruction: m.Instruction}
						}
						opts["lo"], opts["hi"] = lo, hi
					} else if kind == "randomstring" {
						n, err := parseIntStrict(parts[0])
						if err != nil {
							return types.Value{}, nil, err
						}
						opts["len"] = n
					}
				}
				return noValue(), opts, nil
			}),

		mustRule("action.navigate", `navigate\s+to\s+['"](?P<value>[^'"]*)['"]`,
			types.KindNavigate, 15, true, func(m Match) (types.Value, types.Options, error) {
				return types.Value{Kind: types.ValueURL, Str: m.Group("value")}, nil, nil
			}),
	}
}
