package text

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	commaNumberRE = regexp.MustCompile(`[0-9][0-9,]+[0-9]`)
	decimalRE     = regexp.MustCompile(`([0-9]+)\.([0-9]+)`)
	poundsRE      = regexp.MustCompile(`£([0-9,]*[0-9]+)`)
	dollarsRE     = regexp.MustCompile(`\$([0-9.,]*[0-9]+)`)
	ordinalRE     = regexp.MustCompile(`[0-9]+(st|nd|rd|th)`)
	numberRE      = regexp.MustCompile(`[0-9]+`)
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens   = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales = []struct {
		value int64
		name  string
	}{
		{1_000_000_000_000, "trillion"},
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}
)

// ExpandNumbers spells out integers, decimals, ordinals and simple currency
// amounts in s.
func ExpandNumbers(s string) string {
	s = commaNumberRE.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ",", "")
	})
	s = poundsRE.ReplaceAllString(s, "$1 pounds")
	s = dollarsRE.ReplaceAllStringFunc(s, expandDollars)
	s = decimalRE.ReplaceAllString(s, "$1 point $2")
	s = ordinalRE.ReplaceAllStringFunc(s, expandOrdinal)
	return numberRE.ReplaceAllStringFunc(s, expandNumber)
}

func expandDollars(m string) string {
	amount := strings.ReplaceAll(strings.TrimPrefix(m, "$"), ",", "")
	parts := strings.SplitN(amount, ".", 3)
	if len(parts) > 2 {
		return amount + " dollars"
	}

	dollars, _ := strconv.ParseInt(parts[0], 10, 64)
	var cents int64
	if len(parts) == 2 && parts[1] != "" {
		cents, _ = strconv.ParseInt(parts[1], 10, 64)
	}

	unit := func(n int64, one, many string) string {
		if n == 1 {
			return "1 " + one
		}
		return strconv.FormatInt(n, 10) + " " + many
	}
	switch {
	case dollars > 0 && cents > 0:
		return unit(dollars, "dollar", "dollars") + ", " + unit(cents, "cent", "cents")
	case dollars > 0:
		return unit(dollars, "dollar", "dollars")
	case cents > 0:
		return unit(cents, "cent", "cents")
	default:
		return "zero dollars"
	}
}

func expandOrdinal(m string) string {
	n, err := strconv.ParseInt(m[:len(m)-2], 10, 64)
	if err != nil {
		return m
	}
	return ordinal(cardinal(n))
}

func expandNumber(m string) string {
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		// Too long for int64: read it digit by digit.
		digits := make([]string, 0, len(m))
		for _, d := range m {
			digits = append(digits, ones[d-'0'])
		}
		return strings.Join(digits, " ")
	}
	if n > 1000 && n < 3000 {
		return year(n)
	}
	return cardinal(n)
}

// year reads numbers in 1001..2999 the way years are spoken.
func year(n int64) string {
	switch {
	case n == 2000:
		return "two thousand"
	case n > 2000 && n < 2010:
		return "two thousand " + cardinal(n%100)
	case n%100 == 0:
		return cardinal(n/100) + " hundred"
	case n%100 < 10:
		return cardinal(n/100) + " oh " + cardinal(n%100)
	default:
		return cardinal(n/100) + " " + cardinal(n%100)
	}
}

func cardinal(n int64) string {
	if n < 0 {
		return "minus " + cardinal(-n)
	}
	if n < 20 {
		return ones[n]
	}
	if n < 100 {
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	}
	if n < 1000 {
		out := ones[n/100] + " hundred"
		if n%100 != 0 {
			out += " " + cardinal(n%100)
		}
		return out
	}
	for _, sc := range scales {
		if n >= sc.value {
			out := cardinal(n/sc.value) + " " + sc.name
			if rest := n % sc.value; rest != 0 {
				out += " " + cardinal(rest)
			}
			return out
		}
	}
	return strconv.FormatInt(n, 10)
}

var irregularOrdinals = map[string]string{
	"one":    "first",
	"two":    "second",
	"three":  "third",
	"five":   "fifth",
	"eight":  "eighth",
	"nine":   "ninth",
	"twelve": "twelfth",
}

// ordinal turns a spelled-out cardinal into its ordinal by rewriting the
// last word.
func ordinal(words string) string {
	i := strings.LastIndexByte(words, ' ')
	head, last := words[:i+1], words[i+1:]
	switch {
	case irregularOrdinals[last] != "":
		last = irregularOrdinals[last]
	case strings.HasSuffix(last, "y"):
		last = strings.TrimSuffix(last, "y") + "ieth"
	default:
		last += "th"
	}
	return head + last
}
