package render

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/enrich"
)

const dateLayout = "Mon, Jan 2, 2006"

// Date renders a date with its weekday. Unparsable dates show their raw
// text; missing dates show the placeholder.
func Date(d crm.Date) string {
	if d.Valid() {
		return d.Time.Format(dateLayout)
	}
	if d.Raw != "" {
		return d.Raw
	}
	return enrich.Placeholder
}

// Label title-cases an enum value, or shows the placeholder when empty.
func Label(v string) string {
	if v == "" || v == enrich.Placeholder {
		return enrich.Placeholder
	}
	return crm.TitleCase(v)
}

// Topics shows the first two topics followed by "+N" for the rest.
func Topics(topics []string) string {
	if len(topics) == 0 {
		return ""
	}
	if len(topics) <= 2 {
		return strings.Join(topics, ", ")
	}
	return strings.Join(topics[:2], ", ") + " +" + strconv.Itoa(len(topics)-2)
}

// Duration renders minutes as "45m".
func Duration(minutes *int) string {
	if minutes == nil {
		return enrich.Placeholder
	}
	return strconv.Itoa(*minutes) + "m"
}

// Currency renders a whole-dollar amount with thousands separators.
func Currency(v *float64) string {
	if v == nil {
		return enrich.Placeholder
	}
	return CurrencyDecimal(decimal.NewFromFloat(*v))
}

// CurrencyDecimal renders an exact amount as "$48,000".
func CurrencyDecimal(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + groupThousands(d.Round(0).StringFixed(0))
}

// Score renders an optional score with one decimal.
func Score(v *float64) string {
	if v == nil {
		return enrich.Placeholder
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
