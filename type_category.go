package taxlots

import (
	"encoding/json"
	"fmt"
)

// Category is the German tax category a realized result is reported in.
//
// The declaration order is the order of the yearly summary.
type Category int

const (
	// Uncategorized is the zero value, events are never reported in it.
	Uncategorized Category = iota
	// Aktiengewinne are gains and losses from selling individual stocks (Anlage KAP).
	Aktiengewinne
	// Investmentfonds are results from ETFs and investment funds (Anlage KAP-INV).
	Investmentfonds
	// Termingeschaefte are results from options and futures (Anlage KAP).
	Termingeschaefte
	// Waehrungsgewinne are results from holding foreign currency (Anlage SO).
	Waehrungsgewinne
	// PrivateVeraeusserung are results from selling crypto currencies (Anlage SO).
	PrivateVeraeusserung
	// Dividenden are dividend payments net of withholding tax (Anlage KAP).
	Dividenden
	// Zinsen are interest payments (Anlage KAP).
	Zinsen
)

// Categories lists the reportable categories in summary order.
var Categories = []Category{Aktiengewinne, Investmentfonds, Termingeschaefte, Waehrungsgewinne, PrivateVeraeusserung, Dividenden, Zinsen}

var categoryLabels = []string{"", "Aktiengewinne", "Investmentfonds", "Termingeschäfte", "Währungsgewinne", "Private Veräußerungsgeschäfte", "Dividenden", "Zinsen"}

// String returns the German label of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryLabels) {
		return "unknown"
	}
	return categoryLabels[c]
}

// Schedule returns the tax form the category is declared on.
func (c Category) Schedule() string {
	switch c {
	case Investmentfonds:
		return "Anlage KAP-INV"
	case Waehrungsgewinne, PrivateVeraeusserung:
		return "Anlage SO"
	case Uncategorized:
		return ""
	default:
		return "Anlage KAP"
	}
}

// ParseCategory parses a German label into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if s == c.String() {
			return c, nil
		}
	}
	return Uncategorized, fmt.Errorf("unknown tax category: %q", s)
}

func (c Category) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = Uncategorized
		return nil
	}
	v, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
