package suite

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// PageKind classifies a list response body.
type PageKind int

const (
	// PageUnknown is anything that is neither a page envelope nor an array.
	PageUnknown PageKind = iota
	// PagePaged is an object carrying a "content" key.
	PagePaged
	// PageArray is a bare JSON array.
	PageArray
)

// NotAvailable is printed for values the response did not carry.
const NotAvailable = "N/A"

// jsonNull is printed for a key that is present with a null value.
const jsonNull = "null"

// PageSummary is what the report shows for a list response.
type PageSummary struct {
	Kind  PageKind
	Total string
	Items int
}

// SummarizePage inspects a decoded JSON body. Access is best-effort: a paged
// object without totalElements reports N/A and one with a null total reports
// null. Content is counted by its length (elements, keys or characters); a
// content value without a length is an error.
func SummarizePage(body any) (PageSummary, error) {
	switch v := body.(type) {
	case map[string]any:
		content, ok := v["content"]
		if !ok {
			return PageSummary{Kind: PageUnknown}, nil
		}
		total := NotAvailable
		if t, ok := v["totalElements"]; ok {
			total = jsonNull
			if t != nil {
				total = fmt.Sprint(t)
			}
		}
		items, err := countItems(content)
		if err != nil {
			return PageSummary{}, err
		}
		return PageSummary{Kind: PagePaged, Total: total, Items: items}, nil
	case []any:
		return PageSummary{Kind: PageArray, Items: len(v)}, nil
	default:
		return PageSummary{Kind: PageUnknown}, nil
	}
}

func countItems(content any) (int, error) {
	switch c := content.(type) {
	case []any:
		return len(c), nil
	case map[string]any:
		return len(c), nil
	case string:
		return utf8.RuneCountInString(c), nil
	case nil:
		return 0, errors.New("page content is null")
	default:
		return 0, fmt.Errorf("page content has no length (%T)", c)
	}
}

// Details returns the label/value pairs to print for the summary.
func (p PageSummary) Details() [][2]string {
	switch p.Kind {
	case PagePaged:
		return [][2]string{
			{"Total", p.Total},
			{"Items", fmt.Sprint(p.Items)},
		}
	case PageArray:
		return [][2]string{{"Items", fmt.Sprint(p.Items)}}
	default:
		return [][2]string{{"Items", NotAvailable}}
	}
}
