// Package summary resolves declarative count descriptors against a context
// value and renders them as a horizontal bar of labeled counts.
package summary

// Descriptor declares one entry of a count bar. Count, URL and Condition are
// resolved against the render context; use ConstCount and ConstURL for
// values that do not depend on it.
type Descriptor[C any] struct {
	Noun string
	// PluralNoun overrides the default noun+"s" plural.
	PluralNoun string
	Icon       string
	Count      func(C) int
	URL        func(C) string
	// Condition hides the entry when it returns false. Nil always shows it.
	Condition func(C) bool
}

// ConstCount returns a resolver that ignores the context.
func ConstCount[C any](n int) func(C) int {
	return func(C) int { return n }
}

// ConstURL returns a resolver that ignores the context.
func ConstURL[C any](url string) func(C) string {
	return func(C) string { return url }
}

// Item is a resolved descriptor, ready to render.
type Item struct {
	Icon  string
	Count int
	Label string
	URL   string
}

// HasLink reports whether the item points somewhere.
func (i Item) HasLink() bool {
	return i.URL != ""
}

// Resolve evaluates descs against ctx, dropping entries whose condition is
// false. Output order follows descs.
func Resolve[C any](descs []Descriptor[C], ctx C) []Item {
	items := make([]Item, 0, len(descs))
	for _, d := range descs {
		if d.Condition != nil && !d.Condition(ctx) {
			continue
		}

		var count int
		if d.Count != nil {
			count = d.Count(ctx)
		}
		var url string
		if d.URL != nil {
			url = d.URL(ctx)
		}

		items = append(items, Item{
			Icon:  d.Icon,
			Count: count,
			Label: Pluralize(d.Noun, count, d.PluralNoun),
			URL:   url,
		})
	}
	return items
}

// Pluralize picks the noun form for count: the singular for exactly one,
// otherwise plural, or noun+"s" when plural is empty.
func Pluralize(noun string, count int, plural string) string {
	if count == 1 {
		return noun
	}
	if plural != "" {
		return plural
	}
	return noun + "s"
}
