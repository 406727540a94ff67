package learning

// schema declares the outcome fact and the one genuinely declarative rule
// the store evaluates: which locators have ever required healing at all.
// Everything numeric (rates, composites, sliding windows) is aggregated in
// Go over the raw outcome facts — Mangle is not an aggregation engine, it
// answers "which locators/strategies are candidates", the same division
// of labour as honeypot detection's emit-facts/evaluate-rule shape.
const schema = `
Decl outcome(id: string, locator: string, kind: string, result: string, strategy: string, ts: int64).

Decl healed(strategy: string).
healed("alternative-locators").
healed("scroll-into-view").
healed("wait-for-visible").
healed("remove-overlay").
healed("close-modal").
healed("pattern-based-search").
healed("visual-similarity").
healed("force-click").

Decl heal_prone(locator: string).
heal_prone(Locator) :- outcome(_, Locator, _, _, Strategy, _), healed(Strategy).
`
