// Package parser extracts product records from catalog announcement messages.
//
// The grammar is line oriented. Each field is a "LABEL: value" line:
//
//	NOMBRE: Camisa Oxford
//	SKU: CAM-001
//	PRECIO: $10,00 USD
//	CATEGORÍAS: Camisas - Hombre
//	TALLAS: S - M - L
//	DESCRIPCIÓN: Algodón peinado
//	* Precio 2: $8,00 USD (De 5 a 10 unidades)
//	* Precio 3: $6,00 USD (20 unidades o más)
//
// Missing fields default to empty values and malformed tier lines are skipped,
// so parsing never fails once a SKU line is present.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/chat"
)

// Field labels as they appear in announcements.
const (
	LabelName        = "NOMBRE"
	LabelSKU         = "SKU"
	LabelPrice       = "PRECIO"
	LabelCategories  = "CATEGORÍAS"
	LabelSizes       = "TALLAS"
	LabelDescription = "DESCRIPCIÓN"

	listSeparator = "-"
)

var (
	fieldPatterns = map[string]*regexp.Regexp{
		LabelName:        fieldPattern(LabelName),
		LabelSKU:         fieldPattern(LabelSKU),
		LabelPrice:       fieldPattern(LabelPrice),
		LabelCategories:  fieldPattern(LabelCategories),
		LabelSizes:       fieldPattern(LabelSizes),
		LabelDescription: fieldPattern(LabelDescription),
	}

	// tierLinePattern finds candidate tier lines; tierPattern validates one.
	tierLinePattern = regexp.MustCompile(`\* Precio (\d+): (.+) \((.+)\)`)
	tierPattern     = regexp.MustCompile(`\* Precio (\d+): \$(\d{1,3}(?:\.\d{3})*(?:,\d{2})) USD \(([^)]+)\)`)

	rangeBetweenPattern = regexp.MustCompile(`De (\d+) a (\d+) unidades`)
	rangeAtLeastPattern = regexp.MustCompile(`(\d+) unidades o más`)
)

func fieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(norm.NFC.String(label)) + `: (.+)`)
}

// normalize returns the body in NFC with CRLF line endings folded to LF.
func normalize(body string) string {
	return strings.ReplaceAll(norm.NFC.String(body), "\r\n", "\n")
}

// IsProductMessage reports whether body contains a non-empty SKU line.
func IsProductMessage(body string) bool {
	return field(normalize(body), LabelSKU) != ""
}

// Parse extracts a product record from body. The second result is false when
// body is not a product announcement.
func Parse(body string) (*domain.ProductRecord, bool) {
	body = normalize(body)

	sku := field(body, LabelSKU)
	if sku == "" {
		return nil, false
	}

	return &domain.ProductRecord{
		SKU:         sku,
		Name:        field(body, LabelName),
		Description: field(body, LabelDescription),
		Price:       domain.ParseAmount(field(body, LabelPrice)),
		Categories:  list(field(body, LabelCategories)),
		Sizes:       list(field(body, LabelSizes)),
		Variants:    tiers(body),
	}, true
}

// field returns the trimmed value of the first "LABEL: value" occurrence.
func field(body, label string) string {
	m := fieldPatterns[label].FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func list(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tiers(body string) []domain.PriceVariant {
	var variants []domain.PriceVariant
	for _, line := range tierLinePattern.FindAllString(body, -1) {
		m := tierPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		minQty, maxQty := QuantityRange(m[3])
		variants = append(variants, domain.PriceVariant{
			PriceLevel:  m[1],
			Price:       domain.ParseAmount(m[2]),
			MinQuantity: minQty,
			MaxQuantity: maxQty,
		})
	}
	return variants
}

// QuantityRange interprets a tier range phrase. The first matching form wins:
// "De A a B unidades" is [A, B], "A unidades o más" is [A, unbounded], and
// anything else is a single unit.
func QuantityRange(phrase string) (minQty, maxQty int64) {
	phrase = norm.NFC.String(phrase)
	if m := rangeBetweenPattern.FindStringSubmatch(phrase); m != nil {
		lo, errLo := strconv.ParseInt(m[1], 10, 64)
		hi, errHi := strconv.ParseInt(m[2], 10, 64)
		if errLo == nil && errHi == nil {
			return lo, hi
		}
	}
	if m := rangeAtLeastPattern.FindStringSubmatch(phrase); m != nil {
		if lo, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return lo, domain.UnboundedQuantity
		}
	}
	return 1, 1
}

// Kind tags what a transcript message is.
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindProduct
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindProduct:
		return "product"
	default:
		return "other"
	}
}

// Classification is the result of Classify. Record is set only for KindProduct.
type Classification struct {
	Kind   Kind
	Record *domain.ProductRecord
}

// Classify sorts a transcript message into product, image or other.
// Image messages are never products even if their caption has a SKU line.
func Classify(msg chat.Message) Classification {
	if msg.IsImage() {
		return Classification{Kind: KindImage}
	}
	if record, ok := Parse(msg.Body); ok {
		return Classification{Kind: KindProduct, Record: record}
	}
	return Classification{Kind: KindOther}
}
