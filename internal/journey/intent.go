package journey

import (
	"fmt"
	"strings"

	"github.com/tracecart/curator/internal/types"
)

// Intent detection is an explicit ordered rule table rather than nested
// conditionals so each heuristic stays auditable and testable alone.
// The first rule to match wins; the final entry is a catch-all.
type intentRule struct {
	name   string
	detect func(ev types.InteractionEvent, page types.PageClass) (types.Intent, bool)
}

var intentRules = []intentRule{
	{name: "search_query", detect: detectSearch},
	{name: "add_to_cart", detect: detectAddToCart},
	{name: "select_product", detect: detectSelectProduct},
	{name: "browsing_default", detect: detectBrowsing},
}

// detectIntent runs the rule table for one event.
func detectIntent(ev types.InteractionEvent, page types.PageClass) types.Intent {
	for _, rule := range intentRules {
		if intent, ok := rule.detect(ev, page); ok {
			return intent
		}
	}
	// Unreachable: the catch-all always matches.
	intent, _ := detectBrowsing(ev, page)
	return intent
}

// detectSearch fires on text-entry actions carrying a query.
func detectSearch(ev types.InteractionEvent, _ types.PageClass) (types.Intent, bool) {
	if !ev.ActionType.IsTextEntry() {
		return types.Intent{}, false
	}
	query := strings.TrimSpace(ev.Value)
	if query == "" {
		return types.Intent{}, false
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		tokens = []string{strings.ToLower(query)}
	}
	return types.Intent{
		Action:      "searching_for_" + strings.Join(tokens, "_"),
		TargetLabel: query,
		Confidence:  0.9,
		Reasoning:   fmt.Sprintf("typed %q during %s action", query, ev.ActionType),
	}, true
}

// cartLabels are element-text fragments that mark an add-to-cart control.
var cartLabels = []string{"add to cart", "add-to-cart", "add to bag", "add to basket"}

// detectAddToCart fires on clicks whose label reads like a cart control.
// Checked before product selection so cart buttons on product pages are
// not misread as product clicks.
func detectAddToCart(ev types.InteractionEvent, _ types.PageClass) (types.Intent, bool) {
	if ev.ActionType != types.ActionClick {
		return types.Intent{}, false
	}
	label := strings.ToLower(strings.TrimSpace(ev.Element.Text))
	for _, marker := range cartLabels {
		if strings.Contains(label, marker) {
			return types.Intent{
				Action:      "adding_to_cart",
				TargetLabel: strings.TrimSpace(ev.Element.Text),
				Confidence:  0.95,
				Reasoning:   fmt.Sprintf("clicked element labeled %q", ev.Element.Text),
			}, true
		}
	}
	return types.Intent{}, false
}

// productURLMarkers are path fragments marking a product destination.
var productURLMarkers = []string{"/product", "/p/", "/item", "/dp/"}

// detectSelectProduct fires on clicks that look like picking a product:
// either the URL is product-like, or a labeled element was clicked from
// a listing page.
func detectSelectProduct(ev types.InteractionEvent, page types.PageClass) (types.Intent, bool) {
	if ev.ActionType != types.ActionClick {
		return types.Intent{}, false
	}
	label := strings.TrimSpace(ev.Element.Text)
	url := strings.ToLower(ev.PageURL)

	for _, marker := range productURLMarkers {
		if strings.Contains(url, marker) {
			return types.Intent{
				Action:      "selecting_product",
				TargetLabel: label,
				Confidence:  0.85,
				Reasoning:   fmt.Sprintf("clicked on product-like URL %s", ev.PageURL),
			}, true
		}
	}

	if label != "" && (page == types.PageSearchResults || page == types.PageCategory) {
		return types.Intent{
			Action:      "selecting_product",
			TargetLabel: label,
			Confidence:  0.85,
			Reasoning:   fmt.Sprintf("clicked %q from a %s listing", label, page),
		}, true
	}

	return types.Intent{}, false
}

// detectBrowsing is the lowest-confidence catch-all.
func detectBrowsing(ev types.InteractionEvent, _ types.PageClass) (types.Intent, bool) {
	return types.Intent{
		Action:     "browsing",
		Confidence: 0.5,
		Reasoning:  fmt.Sprintf("no stronger signal matched %s action", ev.ActionType),
	}, true
}
