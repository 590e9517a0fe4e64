package journey

import (
	"strings"

	"github.com/tracecart/curator/internal/types"
)

// pageRule maps URL fragments to a page class. Evaluated in order; cart
// comes first because checkout URLs often also carry product fragments.
type pageRule struct {
	markers []string
	class   types.PageClass
}

var pageRules = []pageRule{
	{markers: []string{"cart", "checkout", "basket"}, class: types.PageCart},
	{markers: []string{"search", "?q=", "&q=", "query="}, class: types.PageSearchResults},
	{markers: []string{"/product", "/p/", "/item", "/dp/"}, class: types.PageProductDetail},
	{markers: []string{"/category", "/c/", "/collections", "/shop/"}, class: types.PageCategory},
}

// declaredTypes maps recorder-supplied page type hints into the taxonomy.
var declaredTypes = map[string]types.PageClass{
	"search":         types.PageSearchResults,
	"search-results": types.PageSearchResults,
	"product":        types.PageProductDetail,
	"product-detail": types.PageProductDetail,
	"cart":           types.PageCart,
	"category":       types.PageCategory,
	"home":           types.PageHomepage,
	"homepage":       types.PageHomepage,
}

// ClassifyPage maps a page URL (and optional declared type hint) into the
// fixed navigation taxonomy. URL patterns win over the declared hint;
// anything unresolvable defaults to homepage.
func ClassifyPage(pageURL, declaredType string) types.PageClass {
	url := strings.ToLower(pageURL)
	for _, rule := range pageRules {
		for _, marker := range rule.markers {
			if strings.Contains(url, marker) {
				return rule.class
			}
		}
	}
	if pc, ok := declaredTypes[strings.ToLower(strings.TrimSpace(declaredType))]; ok {
		return pc
	}
	return types.PageHomepage
}
