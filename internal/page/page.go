// Package page defines the Page capability contract consumed by the
// resolver, healing engine, and action executor, per spec.md §6. Core
// code never depends on a concrete browser automation library directly;
// it depends on this interface, which any modern library can satisfy
// (the rod-backed reference implementation lives in
// internal/adapters/rodpage).
package page

import (
	"context"
	"time"

	"aistep/internal/types"
)

// AccessibleNode is one entry from an accessibility-tree query: the
// resolver's primary search surface (spec.md §4.2 rung 1).
type AccessibleNode struct {
	Handle        types.ElementHandle
	Role          string
	AccessibleName string
	Value         string
	Attributes    map[string]string
}

// Cookie mirrors the browser's cookie shape for set/get.
type Cookie struct {
	Name, Value, Domain, Path string
	HTTPOnly, Secure          bool
	Expires                   time.Time
}

// ConsoleEntry is one captured browser console line, attached to
// diagnostics on failure per spec.md §4.4.
type ConsoleEntry struct {
	Level   string
	Text    string
	Time    time.Time
}

// NetworkEntry is one recent network request/response, attached to
// diagnostics on failure per spec.md §4.4.
type NetworkEntry struct {
	Method, URL string
	Status      int
	Time        time.Time
}

// StorageKind distinguishes localStorage from sessionStorage.
type StorageKind string

const (
	StorageLocal   StorageKind = "local"
	StorageSession StorageKind = "session"
)

// FrameSelector names which frame to switch into (spec.md §4.4
// switch-frame), tagged by which form of selector was given.
type FrameSelector struct {
	CSS   string
	Name  string
	Index int
	HasCSS, HasName, HasIndex bool
}

// TabSelector names which tab/page to switch to or close.
type TabSelector struct {
	Index          int
	HasIndex       bool
	Latest, Main   bool
}

// Page is the capability interface described in spec.md §6: goto, query,
// act on an element, manage cookies/storage/tabs/frames, screenshot,
// evaluate script, and retrieve recent diagnostics. All methods take a
// context for cancellation per spec.md §5's cooperative-cancellation model.
type Page interface {
	// Navigation & page-level state.
	Goto(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	NavigateBack(ctx context.Context) error
	NavigateForward(ctx context.Context) error

	// Accessibility-tree and DOM queries, feeding the resolver ladder.
	QueryAccessible(ctx context.Context, role, name string) ([]AccessibleNode, error)
	QueryCSS(ctx context.Context, selector string) ([]types.ElementHandle, error)
	ExtractFeatures(ctx context.Context, handle types.ElementHandle) (types.ElementFeatures, error)

	// Element actions.
	Click(ctx context.Context, handle types.ElementHandle, opts ClickOptions) error
	Hover(ctx context.Context, handle types.ElementHandle) error
	Type(ctx context.Context, handle types.ElementHandle, value string, opts TypeOptions) error
	PressKey(ctx context.Context, handle *types.ElementHandle, combo []string) error
	Select(ctx context.Context, handle types.ElementHandle, value string) error
	Upload(ctx context.Context, handle types.ElementHandle, path string) error
	ScrollIntoView(ctx context.Context, handle types.ElementHandle) error

	// Waits.
	WaitVisible(ctx context.Context, handle types.ElementHandle, timeout time.Duration) error
	WaitHidden(ctx context.Context, handle types.ElementHandle, timeout time.Duration) error
	WaitDetached(ctx context.Context, handle types.ElementHandle, timeout time.Duration) error

	// Script evaluation.
	Evaluate(ctx context.Context, script string, args []any) (string, error)

	// Screenshot, video, trace.
	Screenshot(ctx context.Context, handle *types.ElementHandle) (path string, err error)
	StartVideo(ctx context.Context) error
	StopVideo(ctx context.Context) (path string, err error)
	StartTrace(ctx context.Context) error
	StopTrace(ctx context.Context) (path string, err error)

	// Cookies & storage.
	SetCookie(ctx context.Context, c Cookie) error
	GetCookie(ctx context.Context, name string) (Cookie, bool, error)
	ClearCookies(ctx context.Context) error
	GetStorageItem(ctx context.Context, kind StorageKind, key string) (string, bool, error)
	SetStorageItem(ctx context.Context, kind StorageKind, key, value string) error
	ClearStorage(ctx context.Context, kind StorageKind) error

	// Tabs, frames, downloads.
	SwitchTab(ctx context.Context, sel TabSelector) error
	OpenNewTab(ctx context.Context, url string) error
	CloseTab(ctx context.Context, sel TabSelector) error
	SwitchFrame(ctx context.Context, sel FrameSelector) error
	SwitchMainFrame(ctx context.Context) error
	DownloadPath(ctx context.Context) (string, bool, error)

	// Diagnostics.
	RecentConsole(ctx context.Context, n int) ([]ConsoleEntry, error)
	RecentNetwork(ctx context.Context, n int) ([]NetworkEntry, error)

	// Session lifecycle (spec.md §5 browser-reuse contract).
	ResetForReuse(ctx context.Context) error
	Close(ctx context.Context) error
}

// ClickOptions mirrors the click intent's options (spec.md §4.4).
type ClickOptions struct {
	Button     string // "left", "right", "middle"
	Modifiers  []string
	OffsetX, OffsetY float64
	HasOffset  bool
	ClickCount int
	Force      bool
	Timeout    time.Duration
}

// TypeOptions mirrors the type intent's options (spec.md §4.4).
type TypeOptions struct {
	ClearFirst         bool
	DelayBetweenKeysMs int
}
