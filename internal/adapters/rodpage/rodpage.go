// Package rodpage is the reference Page capability binding backed by
// github.com/go-rod/rod, grounded on the teacher's
// internal/browser/session_manager.go (browser launch/connect/viewport)
// and internal/browser/honeypot.go (el.Eval / page.Elements query shape).
// It is the concrete adapter behind the page.Page interface the core
// depends on; nothing outside this package imports rod directly.
package rodpage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"aistep/internal/logging"
	"aistep/internal/page"
	"aistep/internal/types"
)

// maxDiagBuffer bounds how many recent console/network entries this
// adapter retains; RecentConsole/RecentNetwork serve the last n of these.
const maxDiagBuffer = 200

// Options configures the launched/attached browser, following the
// teacher's browser.Config shape reduced to this core's needs.
type Options struct {
	DebuggerURL    string
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
}

// DefaultOptions mirrors the teacher's browser.DefaultConfig.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		NavTimeout:     30 * time.Second,
	}
}

// Page is the rod-backed page.Page implementation. One Page wraps one
// rod.Page plus its owning browser, so ResetForReuse/Close have
// something concrete to act on.
type Page struct {
	opts     Options
	browser  *rod.Browser
	rp       *rod.Page // the active frame/tab
	root     *rod.Page // the active tab's top-level frame, restored by SwitchMainFrame
	handles  map[string]*rod.Element // ID -> live element, populated by Query*
	download string
	video    bool
	trace    bool

	diagCancel context.CancelFunc
	diagMu     sync.Mutex
	console    []page.ConsoleEntry
	network    []page.NetworkEntry
}

// New launches (or attaches to, via opts.DebuggerURL) a browser and
// opens a fresh incognito page, the same two-path shape as the
// teacher's SessionManager.Start/CreateSession.
func New(ctx context.Context, opts Options) (*Page, error) {
	if opts.NavTimeout == 0 {
		opts = DefaultOptions()
	}
	controlURL := opts.DebuggerURL
	if controlURL == "" {
		url, err := launcher.New().Headless(opts.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	incognito, err := browser.Incognito()
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	rp, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width: opts.ViewportWidth, Height: opts.ViewportHeight, DeviceScaleFactor: 1,
	}).Call(rp); err != nil {
		logging.Named(logging.CategoryPage).Warn("failed to set viewport", zap.Error(err))
	}

	diagCtx, cancel := context.WithCancel(context.Background())
	p := &Page{opts: opts, browser: browser, rp: rp, root: rp, handles: map[string]*rod.Element{}, diagCancel: cancel}
	go p.watchDiagnostics(diagCtx, rp)
	return p, nil
}

// watchDiagnostics mirrors the teacher's SessionManager.Start console/
// network EachEvent listener, repointed from Mangle fact emission to the
// bounded console/network buffers RecentConsole/RecentNetwork serve.
// It runs until diagCtx is canceled (by Close or a ResetForReuse-driven
// rebuild of the tab).
func (p *Page) watchDiagnostics(diagCtx context.Context, rp *rod.Page) {
	wait := rp.Context(diagCtx).EachEvent(
		func(ev *proto.RuntimeConsoleAPICalled) {
			p.diagMu.Lock()
			defer p.diagMu.Unlock()
			p.console = appendBounded(p.console, page.ConsoleEntry{
				Level: string(ev.Type),
				Text:  stringifyConsoleArgs(ev.Args),
				Time:  time.Now(),
			})
		},
		func(ev *proto.NetworkRequestWillBeSent) {
			p.diagMu.Lock()
			defer p.diagMu.Unlock()
			p.network = appendBounded(p.network, page.NetworkEntry{
				Method: ev.Request.Method,
				URL:    ev.Request.URL,
				Time:   time.Now(),
			})
		},
		func(ev *proto.NetworkResponseReceived) {
			p.diagMu.Lock()
			defer p.diagMu.Unlock()
			for i := len(p.network) - 1; i >= 0; i-- {
				if p.network[i].URL == ev.Response.URL && p.network[i].Status == 0 {
					p.network[i].Status = ev.Response.Status
					return
				}
			}
			p.network = appendBounded(p.network, page.NetworkEntry{
				URL:    ev.Response.URL,
				Status: ev.Response.Status,
				Time:   time.Now(),
			})
		},
	)
	wait()
}

func appendBounded[T any](buf []T, entry T) []T {
	buf = append(buf, entry)
	if len(buf) > maxDiagBuffer {
		buf = buf[len(buf)-maxDiagBuffer:]
	}
	return buf
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}

func (p *Page) timeout(ctx context.Context) *rod.Page {
	if d, ok := ctx.Deadline(); ok {
		return p.rp.Timeout(time.Until(d))
	}
	return p.rp.Context(ctx)
}

func (p *Page) Goto(ctx context.Context, url string) error {
	return p.timeout(ctx).Navigate(url)
}

func (p *Page) URL(ctx context.Context) (string, error) {
	info, err := p.rp.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.rp.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *Page) NavigateBack(ctx context.Context) error    { return p.rp.NavigateBack() }
func (p *Page) NavigateForward(ctx context.Context) error { return p.rp.NavigateForward() }

// QueryAccessible approximates an accessibility-tree query with rod's
// CSS selector search over interactive/ARIA-bearing tags, the same
// element universe the teacher's honeypot detector scans
// ("a, button, input, [onclick], [role='button'], [role='link']"),
// extended to cover every ARIA role rather than just button/link.
func (p *Page) QueryAccessible(ctx context.Context, role, name string) ([]page.AccessibleNode, error) {
	els, err := p.rp.Elements(`a, button, input, select, textarea, [role], [onclick]`)
	if err != nil {
		return nil, err
	}
	var out []page.AccessibleNode
	for i, el := range els {
		node, err := p.describeElement(el)
		if err != nil {
			continue
		}
		if role != "" && node.Role != role {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(node.AccessibleName), strings.ToLower(name)) {
			continue
		}
		id := fmt.Sprintf("el-%d-%s", i, uuid.NewString()[:8])
		p.handles[id] = el
		node.Handle = types.ElementHandle{ID: id, Native: el}
		out = append(out, node)
	}
	return out, nil
}

func (p *Page) describeElement(el *rod.Element) (page.AccessibleNode, error) {
	tag, err := el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return page.AccessibleNode{}, err
	}
	roleAttr, _ := el.Attribute("role")
	role := tag.Value.String()
	if roleAttr != nil {
		role = *roleAttr
	}
	text, _ := el.Text()
	ariaLabel, _ := el.Attribute("aria-label")
	name := text
	if ariaLabel != nil && *ariaLabel != "" {
		name = *ariaLabel
	}
	value, _ := el.Eval(`() => this.value || ""`)
	attrs := map[string]string{}
	if disabled, _ := el.Attribute("disabled"); disabled != nil {
		attrs["disabled"] = *disabled
	}
	if checked, err := el.Eval(`() => !!this.checked`); err == nil && checked.Value.Bool() {
		attrs["checked"] = "true"
	}
	return page.AccessibleNode{Role: role, AccessibleName: strings.TrimSpace(name), Value: value.Value.String(), Attributes: attrs}, nil
}

func (p *Page) QueryCSS(ctx context.Context, selector string) ([]types.ElementHandle, error) {
	els, err := p.rp.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]types.ElementHandle, 0, len(els))
	for i, el := range els {
		id := fmt.Sprintf("css-%d-%s", i, uuid.NewString()[:8])
		p.handles[id] = el
		out = append(out, types.ElementHandle{ID: id, Native: el})
	}
	return out, nil
}

func (p *Page) element(handle types.ElementHandle) (*rod.Element, error) {
	if el, ok := handle.Native.(*rod.Element); ok {
		return el, nil
	}
	if el, ok := p.handles[handle.ID]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("stale element handle %q", handle.ID)
}

func (p *Page) ExtractFeatures(ctx context.Context, handle types.ElementHandle) (types.ElementFeatures, error) {
	el, err := p.element(handle)
	if err != nil {
		return types.ElementFeatures{}, err
	}
	node, err := p.describeElement(el)
	if err != nil {
		return types.ElementFeatures{}, err
	}
	// Quad-to-box math follows the teacher's honeypot.go position fact
	// extraction: average the four quad corners for the centre point,
	// then derive width/height from the opposite edges.
	var visual types.VisualFeatures
	if shape, err := el.Shape(); err == nil && shape != nil && len(shape.Quads) > 0 {
		q := shape.Quads[0]
		x := (q[0] + q[2] + q[4] + q[6]) / 4
		y := (q[1] + q[3] + q[5] + q[7]) / 4
		visual = types.VisualFeatures{X: x, Y: y, Width: q[2] - q[0], Height: q[5] - q[1]}
	}
	return types.ElementFeatures{
		Text:       types.TextFeatures{VisibleText: node.AccessibleName, FormValue: node.Value},
		Visual:     visual,
		Structural: types.StructuralFeatures{Tag: node.Role, Attributes: node.Attributes, Role: node.Role},
	}, nil
}

func (p *Page) Click(ctx context.Context, handle types.ElementHandle, opts page.ClickOptions) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	btn := proto.InputMouseButtonLeft
	switch opts.Button {
	case "right":
		btn = proto.InputMouseButtonRight
	case "middle":
		btn = proto.InputMouseButtonMiddle
	}
	if err := el.Click(btn, max(opts.ClickCount, 1)); err != nil {
		return &types.ActionError{Kind: types.ActionIntercepted, Cause: err}
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (p *Page) Hover(ctx context.Context, handle types.ElementHandle) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	return el.Hover()
}

func (p *Page) Type(ctx context.Context, handle types.ElementHandle, value string, opts page.TypeOptions) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotEditable, Cause: err}
	}
	if opts.ClearFirst {
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
	}
	return el.Input(value)
}

func (p *Page) PressKey(ctx context.Context, handle *types.ElementHandle, combo []string) error {
	if handle == nil {
		return p.rp.Keyboard.Type()
	}
	el, err := p.element(*handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	return el.Focus()
}

func (p *Page) Select(ctx context.Context, handle types.ElementHandle, value string) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	return el.Select([]string{value}, true, rod.SelectorTypeText)
}

func (p *Page) Upload(ctx context.Context, handle types.ElementHandle, path string) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	return el.SetFiles([]string{path})
}

func (p *Page) ScrollIntoView(ctx context.Context, handle types.ElementHandle) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	return el.ScrollIntoView()
}

func (p *Page) WaitVisible(ctx context.Context, handle types.ElementHandle, timeout time.Duration) error {
	el, err := p.element(handle)
	if err != nil {
		return &types.TimeoutError{Operation: "wait-visible", VisibilityWait: true}
	}
	if err := el.Timeout(timeout).WaitVisible(); err != nil {
		return &types.TimeoutError{Operation: "wait-visible", BudgetMs: timeout.Milliseconds(), VisibilityWait: true}
	}
	return nil
}

func (p *Page) WaitHidden(ctx context.Context, handle types.ElementHandle, timeout time.Duration) error {
	el, err := p.element(handle)
	if err != nil {
		return nil
	}
	if err := el.Timeout(timeout).WaitInvisible(); err != nil {
		return &types.TimeoutError{Operation: "wait-hidden", BudgetMs: timeout.Milliseconds(), VisibilityWait: true}
	}
	return nil
}

func (p *Page) WaitDetached(ctx context.Context, handle types.ElementHandle, timeout time.Duration) error {
	el, err := p.element(handle)
	if err != nil {
		return nil
	}
	if err := el.Timeout(timeout).WaitInteractable(); err != nil {
		return &types.TimeoutError{Operation: "wait-detached", BudgetMs: timeout.Milliseconds()}
	}
	return nil
}

func (p *Page) Evaluate(ctx context.Context, script string, args []any) (string, error) {
	if len(args) > 0 {
		if el, ok := args[0].(*rod.Element); ok {
			res, err := el.Eval(script, args[1:]...)
			if err != nil {
				return "", err
			}
			return res.Value.String(), nil
		}
	}
	res, err := p.rp.Eval(script, args...)
	if err != nil {
		return "", err
	}
	return res.Value.String(), nil
}

func (p *Page) Screenshot(ctx context.Context, handle *types.ElementHandle) (string, error) {
	var data []byte
	var err error
	if handle != nil {
		el, elErr := p.element(*handle)
		if elErr != nil {
			return "", elErr
		}
		data, err = el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	} else {
		data, err = p.rp.Screenshot(true, nil)
	}
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("screenshots/%s.png", uuid.NewString())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Page) StartVideo(ctx context.Context) error { p.video = true; return nil }
func (p *Page) StopVideo(ctx context.Context) (string, error) {
	p.video = false
	return "", nil
}
func (p *Page) StartTrace(ctx context.Context) error { p.trace = true; return nil }
func (p *Page) StopTrace(ctx context.Context) (string, error) {
	p.trace = false
	return "", nil
}

func (p *Page) SetCookie(ctx context.Context, c page.Cookie) error {
	return p.rp.SetCookies([]*proto.NetworkCookieParam{{
		Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
		HTTPOnly: c.HTTPOnly, Secure: c.Secure,
	}})
}

func (p *Page) GetCookie(ctx context.Context, name string) (page.Cookie, bool, error) {
	cookies, err := p.rp.Cookies([]string{})
	if err != nil {
		return page.Cookie{}, false, err
	}
	for _, c := range cookies {
		if c.Name == name {
			return page.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}, true, nil
		}
	}
	return page.Cookie{}, false, nil
}

func (p *Page) ClearCookies(ctx context.Context) error {
	return proto.NetworkClearBrowserCookies{}.Call(p.rp)
}

func (p *Page) GetStorageItem(ctx context.Context, kind page.StorageKind, key string) (string, bool, error) {
	store := "localStorage"
	if kind == page.StorageSession {
		store = "sessionStorage"
	}
	script := fmt.Sprintf(`() => { const v = %s.getItem(%q); return v === null ? " __absent__" : v }`, store, key)
	res, err := p.rp.Eval(script)
	if err != nil {
		return "", false, err
	}
	raw := res.Value.String()
	if raw == " __absent__" {
		return "", false, nil
	}
	return raw, true, nil
}

func (p *Page) SetStorageItem(ctx context.Context, kind page.StorageKind, key, value string) error {
	script := storageScript(kind, fmt.Sprintf("setItem(%q, %q)", key, value))
	_, err := p.rp.Eval(script)
	return err
}

func (p *Page) ClearStorage(ctx context.Context, kind page.StorageKind) error {
	script := storageScript(kind, "clear()")
	_, err := p.rp.Eval(script)
	return err
}

func storageScript(kind page.StorageKind, call string) string {
	store := "localStorage"
	if kind == page.StorageSession {
		store = "sessionStorage"
	}
	return fmt.Sprintf("() => %s.%s", store, call)
}

func (p *Page) SwitchTab(ctx context.Context, sel page.TabSelector) error {
	pages, err := p.browser.Pages()
	if err != nil {
		return err
	}
	target := p.pickTab(pages, sel)
	if target == nil {
		return fmt.Errorf("no matching tab")
	}
	p.rp = target
	p.root = target
	return nil
}

func (p *Page) pickTab(pages rod.Pages, sel page.TabSelector) *rod.Page {
	if len(pages) == 0 {
		return nil
	}
	switch {
	case sel.HasIndex && sel.Index < len(pages):
		return pages[sel.Index]
	case sel.Main:
		return pages[0]
	default:
		return pages[len(pages)-1]
	}
}

func (p *Page) OpenNewTab(ctx context.Context, url string) error {
	np, err := p.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return err
	}
	p.rp = np
	p.root = np
	return nil
}

func (p *Page) CloseTab(ctx context.Context, sel page.TabSelector) error {
	pages, err := p.browser.Pages()
	if err != nil {
		return err
	}
	target := p.pickTab(pages, sel)
	if target == nil {
		return nil
	}
	return target.Close()
}

// SwitchFrame resolves the iframe element named by sel and descends into
// its content document, the rod idiom for frame switching: there is no
// frame-by-ID lookup on Page itself, only *Element.Frame() on the
// iframe's own element handle.
func (p *Page) SwitchFrame(ctx context.Context, sel page.FrameSelector) error {
	var iframe *rod.Element
	var err error
	switch {
	case sel.HasCSS:
		iframe, err = p.rp.Element(sel.CSS)
	case sel.HasName:
		iframe, err = p.rp.Element(fmt.Sprintf(`iframe[name=%q]`, sel.Name))
	default:
		return fmt.Errorf("switch-frame requires a selector")
	}
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	frame, err := iframe.Frame()
	if err != nil {
		return &types.ActionError{Kind: types.ActionNotFound, Cause: err}
	}
	p.rp = frame
	return nil
}

func (p *Page) SwitchMainFrame(ctx context.Context) error {
	p.rp = p.root
	return nil
}

func (p *Page) DownloadPath(ctx context.Context) (string, bool, error) {
	if p.download == "" {
		return "", false, nil
	}
	return p.download, true, nil
}

func (p *Page) RecentConsole(ctx context.Context, n int) ([]page.ConsoleEntry, error) {
	p.diagMu.Lock()
	defer p.diagMu.Unlock()
	return lastN(p.console, n), nil
}

func (p *Page) RecentNetwork(ctx context.Context, n int) ([]page.NetworkEntry, error) {
	p.diagMu.Lock()
	defer p.diagMu.Unlock()
	return lastN(p.network, n), nil
}

func lastN[T any](buf []T, n int) []T {
	if n <= 0 || n >= len(buf) {
		out := make([]T, len(buf))
		copy(out, buf)
		return out
	}
	out := make([]T, n)
	copy(out, buf[len(buf)-n:])
	return out
}

// ResetForReuse implements spec.md §5's browser-reuse contract: clear
// cookies/storage and navigate to about:blank without tearing down the
// underlying browser context, preserving accumulated trace/video artifacts.
func (p *Page) ResetForReuse(ctx context.Context) error {
	p.rp = p.root
	if err := p.ClearCookies(ctx); err != nil {
		return err
	}
	if err := p.ClearStorage(ctx, page.StorageLocal); err != nil {
		return err
	}
	if err := p.ClearStorage(ctx, page.StorageSession); err != nil {
		return err
	}
	p.handles = map[string]*rod.Element{}
	p.download = ""
	p.diagMu.Lock()
	p.console = nil
	p.network = nil
	p.diagMu.Unlock()
	return p.rp.Navigate("about:blank")
}

func (p *Page) Close(ctx context.Context) error {
	if p.diagCancel != nil {
		p.diagCancel()
	}
	_ = p.rp.Close()
	return p.browser.Close()
}
