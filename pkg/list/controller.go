// Package list manages the ordered, editable collections inside a section:
// FAQ entries, cards, testimonials, timeline steps.
package list

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"site-admin/pkg/staging"
)

const (
	ProLimit     = 20
	DefaultLimit = 10
)

// LimitFor maps a plan type to its item ceiling.
func LimitFor(plan string) int {
	if strings.EqualFold(strings.TrimSpace(plan), "pro") {
		return ProLimit
	}
	return DefaultLimit
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Options configure a Controller for one section's list.
type Options struct {
	// Template is the empty item used for appends and for the floor-of-one reset.
	Template map[string]interface{}
	// Limit is the plan ceiling. Zero means DefaultLimit.
	Limit int
	// Renumber rewrites OrderField (or the ID when OrderField is empty) as 1..n
	// after removals and moves.
	Renumber   bool
	OrderField string
	// Searchable lists the fields Filter looks at. Empty means every string field.
	Searchable []string
	SortField  string
	// NewID overrides uuid generation, mainly for tests.
	NewID func() string
}

// Controller holds one list's state. Every mutation installs a fresh slice, so
// slices previously returned by Items are never modified.
type Controller struct {
	opts   Options
	items  []Item
	search string
	order  SortOrder
	folder cases.Caser
}

// NewController seeds the controller with items; an empty list gets one
// template row.
func NewController(opts Options, items []Item) *Controller {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	c := &Controller{opts: opts, order: SortAsc, folder: cases.Fold()}
	c.SetItems(items)
	return c
}

// SetItems replaces the list, e.g. after a reload.
func (c *Controller) SetItems(items []Item) {
	next := slices.Clone(items)
	if len(next) == 0 {
		next = []Item{c.blank(1)}
	}
	c.items = next
}

func (c *Controller) Items() []Item { return c.items }

func (c *Controller) Len() int { return len(c.items) }

func (c *Controller) Limit() int { return c.opts.Limit }

func (c *Controller) LimitReached() bool { return len(c.items) >= c.opts.Limit }

// Append adds a clone of template (Options.Template when nil) with a fresh id.
// It reports false and changes nothing when the list is at its limit or a
// search is active.
func (c *Controller) Append(template map[string]interface{}) (string, bool) {
	if c.LimitReached() || c.Searching() {
		return "", false
	}
	if template == nil {
		template = c.opts.Template
	}
	it := Item{ID: c.appendID(), Fields: cloneFields(template)}
	if c.opts.Renumber && c.opts.OrderField != "" {
		it.Fields[c.opts.OrderField] = float64(len(c.items) + 1)
	}
	next := make([]Item, len(c.items), len(c.items)+1)
	copy(next, c.items)
	c.items = append(next, it)
	return it.ID, true
}

// UpdateField sets one field on the item at index.
func (c *Controller) UpdateField(index int, field string, value interface{}) {
	if !c.valid(index) {
		return
	}
	next := slices.Clone(c.items)
	next[index] = next[index].With(field, value)
	c.items = next
}

// Remove deletes the item at index. The last remaining item is reset to the
// template instead, so the list never becomes empty.
func (c *Controller) Remove(index int) {
	if !c.valid(index) {
		return
	}
	c.items[index].File.Release()
	if len(c.items) <= 1 {
		c.items = []Item{c.blank(1)}
		return
	}
	next := make([]Item, 0, len(c.items)-1)
	next = append(next, c.items[:index]...)
	next = append(next, c.items[index+1:]...)
	c.items = c.renumbered(next)
}

// Reorder moves the item at source so it ends up at target.
func (c *Controller) Reorder(source, target int) {
	if source == target || !c.valid(source) || !c.valid(target) || c.Searching() {
		return
	}
	moved := c.items[source]
	next := make([]Item, 0, len(c.items))
	next = append(next, c.items[:source]...)
	next = append(next, c.items[source+1:]...)
	next = slices.Insert(next, target, moved)
	c.items = c.renumbered(next)
}

// StageFile attaches a staged upload to the item at index and releases the
// one it replaces.
func (c *Controller) StageFile(index int, f *staging.File) {
	if !c.valid(index) {
		f.Release()
		return
	}
	next := slices.Clone(c.items)
	if prev := next[index].File; prev != nil && prev != f {
		prev.Release()
	}
	next[index].File = f
	c.items = next
}

// Close releases every staged file.
func (c *Controller) Close() {
	for _, it := range c.items {
		it.File.Release()
	}
}

// Filter returns the items whose searchable fields contain term, ignoring
// case. An empty term returns every item.
func (c *Controller) Filter(term string) []Item {
	needle := c.folder.String(strings.TrimSpace(term))
	if needle == "" {
		return slices.Clone(c.items)
	}
	var out []Item
	for _, it := range c.items {
		if c.matches(it, needle) {
			out = append(out, it)
		}
	}
	return out
}

func (c *Controller) SetSearch(term string) { c.search = strings.TrimSpace(term) }

func (c *Controller) Search() string { return c.search }

// Searching reports whether a search term narrows the view. Append and Reorder
// are disabled meanwhile because view indices no longer match list indices.
func (c *Controller) Searching() bool { return c.search != "" }

func (c *Controller) SortOrder() SortOrder { return c.order }

func (c *Controller) SetSortOrder(o SortOrder) {
	if o == SortDesc {
		c.order = SortDesc
		return
	}
	c.order = SortAsc
}

// ToggleSort flips between ascending and descending.
func (c *Controller) ToggleSort() SortOrder {
	if c.order == SortAsc {
		c.order = SortDesc
	} else {
		c.order = SortAsc
	}
	return c.order
}

// Visible is the filtered view in the current sort order.
func (c *Controller) Visible() []Item {
	view := c.Filter(c.search)
	if c.opts.SortField == "" {
		if c.order == SortDesc {
			slices.Reverse(view)
		}
		return view
	}
	field := c.opts.SortField
	slices.SortStableFunc(view, func(a, b Item) int {
		r := c.compareValues(a.Get(field), b.Get(field))
		if c.order == SortDesc {
			return -r
		}
		return r
	})
	return view
}

// Page returns page n (1-based) of the visible view and the page count.
func (c *Controller) Page(n, size int) ([]Item, int) {
	view := c.Visible()
	if size <= 0 {
		return view, 1
	}
	pages := (len(view) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if n < 1 || n > pages {
		return nil, pages
	}
	start := (n - 1) * size
	end := min(start+size, len(view))
	return view[start:end], pages
}

// IsComplete reports whether every required field holds a usable value:
// a non-blank string, or any other non-nil, non-zero value.
func IsComplete(it Item, required []string) bool {
	for _, field := range required {
		if isZero(it.Get(field)) {
			return false
		}
	}
	return true
}

// Filled applies the IsComplete rule to a single value.
func Filled(v interface{}) bool { return !isZero(v) }

// Progress counts complete items.
func (c *Controller) Progress(required []string) (done, total int) {
	for _, it := range c.items {
		if IsComplete(it, required) {
			done++
		}
	}
	return done, len(c.items)
}

// LastIncomplete flags the trailing row so it can be highlighted before submit.
func (c *Controller) LastIncomplete(required []string) bool {
	if len(c.items) == 0 {
		return false
	}
	return !IsComplete(c.items[len(c.items)-1], required)
}

// FirstIncomplete returns the index and field of the first gap, or -1.
func (c *Controller) FirstIncomplete(required []string) (int, string) {
	for i, it := range c.items {
		for _, field := range required {
			if isZero(it.Get(field)) {
				return i, field
			}
		}
	}
	return -1, ""
}

func (c *Controller) valid(index int) bool {
	return index >= 0 && index < len(c.items)
}

func (c *Controller) byID() bool {
	return c.opts.Renumber && c.opts.OrderField == ""
}

func (c *Controller) nextID(position int) string {
	if c.byID() {
		return strconv.Itoa(position)
	}
	return c.opts.NewID()
}

// appendID picks the id for a new trailing item. Stored numeric ids may have
// gaps, so numbering continues past the highest one.
func (c *Controller) appendID() string {
	if !c.byID() {
		return c.opts.NewID()
	}
	next := len(c.items) + 1
	for _, it := range c.items {
		if n, err := strconv.Atoi(it.ID); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.Itoa(next)
}

func (c *Controller) blank(position int) Item {
	it := Item{ID: c.nextID(position), Fields: cloneFields(c.opts.Template)}
	if c.opts.Renumber && c.opts.OrderField != "" {
		it.Fields[c.opts.OrderField] = float64(position)
	}
	return it
}

func (c *Controller) renumbered(items []Item) []Item {
	if !c.opts.Renumber {
		return items
	}
	for i := range items {
		if c.byID() {
			items[i].ID = strconv.Itoa(i + 1)
		} else {
			items[i] = items[i].With(c.opts.OrderField, float64(i+1))
		}
	}
	return items
}

func (c *Controller) matches(it Item, needle string) bool {
	fields := c.opts.Searchable
	if len(fields) == 0 {
		for k := range it.Fields {
			fields = append(fields, k)
		}
	}
	for _, f := range fields {
		switch v := it.Get(f).(type) {
		case string:
			if strings.Contains(c.folder.String(v), needle) {
				return true
			}
		case []interface{}:
			for _, tag := range v {
				if s, ok := tag.(string); ok && strings.Contains(c.folder.String(s), needle) {
					return true
				}
			}
		}
	}
	return false
}

func isZero(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}

func (c *Controller) compareValues(a, b interface{}) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return cmp.Compare(af, bf)
	}
	return strings.Compare(c.folder.String(fmt.Sprint(a)), c.folder.String(fmt.Sprint(b)))
}
