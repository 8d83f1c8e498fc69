package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"adetl/internal/table"
)

// Builtin cleaners. Each one encodes a real quirk of a specific platform
// export; the parameters (column names, tokens, prefixes) are fixed because
// the exports fix them.
func init() {
	RegisterCleaner("x_avg_frequency_dash_to_zero", cleanXAvgFrequency)
	RegisterCleaner("tiktok_remove_total_row", cleanTikTokRemoveTotal)
	RegisterCleaner("tiktok_strip_mp4_suffix", cleanTikTokStripMP4)
	RegisterCleaner("naver_gfa_age_gender", cleanNaverGFAAgeGender)
	RegisterCleaner("naver_gfa_date", cleanNaverGFADate)
}

// cleanXAvgFrequency replaces the X export's "-" placeholder in the
// "Average frequency" column with a textual zero so the later float cast
// sees a number. Only applies while the column is still textual, which makes
// it idempotent: after one pass no "-" remains, and an already-numeric
// column is untouched.
func cleanXAvgFrequency(t *table.Table) error {
	c := t.Column("Average frequency")
	if c == nil {
		return fmt.Errorf("x_avg_frequency_dash_to_zero: column \"Average frequency\" not present")
	}
	if c.Kind != table.KindString {
		return nil
	}
	for i, v := range c.Values {
		if s, ok := v.(string); ok && s == "-" {
			c.Values[i] = "0"
		}
	}
	return nil
}

// cleanTikTokRemoveTotal drops the grand-total row TikTok appends to its
// exports. The check is positional: column 0 is the classifier's Source
// stamp, so column 1 is the export's own first column, which carries the
// "Total" label regardless of locale-specific column naming.
func cleanTikTokRemoveTotal(t *table.Table) error {
	if t.NumCols() < 2 {
		return fmt.Errorf("tiktok_remove_total_row: table has %d column(s), need at least 2", t.NumCols())
	}
	c := t.ColumnAt(1)
	t.FilterRows(func(row int) bool {
		s, ok := c.Values[row].(string)
		return !ok || !strings.HasPrefix(s, "Total")
	})
	return nil
}

// cleanTikTokStripMP4 strips the trailing ".mp4" TikTok leaves on ad names
// exported from video creatives.
func cleanTikTokStripMP4(t *table.Table) error {
	c := t.Column("Ad name")
	if c == nil {
		return fmt.Errorf("tiktok_strip_mp4_suffix: column \"Ad name\" not present")
	}
	for i, v := range c.Values {
		if s, ok := v.(string); ok {
			c.Values[i] = strings.TrimSuffix(s, ".mp4")
		}
	}
	return nil
}

var (
	ageRangeRe     = regexp.MustCompile(`^(\d+)\s*세?\s*[~〜\-]\s*(\d+)\s*세?$`)
	ageOpenEndedRe = regexp.MustCompile(`^(\d+)\s*세?\s*이상$`)
)

// cleanNaverGFAAgeGender splits Naver GFA's combined "연령 및 성별" column
// into the canonical "연령" (age bucket) and "성" (gender code) columns.
//
// Observed value shapes: "남성 25세~29세", "여 60세 이상", "female 18~24",
// "알 수 없음". Age buckets normalize to "25-29", "60+", or "Unknown";
// gender normalizes to "M", "F", or "U" (unrecognized never fails, the
// export mixes locales too freely for that).
func cleanNaverGFAAgeGender(t *table.Table) error {
	const combined = "연령 및 성별"
	c := t.Column(combined)
	if c == nil {
		return fmt.Errorf("naver_gfa_age_gender: column %q not present", combined)
	}
	if t.Has("연령") || t.Has("성") {
		return fmt.Errorf("naver_gfa_age_gender: split target column already present")
	}

	ages := make([]any, len(c.Values))
	genders := make([]any, len(c.Values))
	for i, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		age, gender := splitAgeGender(s)
		ages[i] = age
		genders[i] = gender
	}

	// Replace the combined column with the age buckets in place, keeping
	// column position, then append the gender codes.
	c.Name = "연령"
	c.Values = ages
	if err := t.AddNull("성", table.KindString); err != nil {
		return err
	}
	copy(t.Column("성").Values, genders)
	return nil
}

func splitAgeGender(s string) (age, gender string) {
	s = strings.TrimSpace(s)
	if isUnknownSentinel(s) {
		return "Unknown", "U"
	}

	gender = "U"
	rest := s
	for _, tok := range strings.Fields(s) {
		if g, ok := genderCode(tok); ok {
			gender = g
			rest = strings.TrimSpace(strings.Replace(s, tok, "", 1))
			break
		}
	}

	return normalizeAgeBucket(rest), gender
}

func isUnknownSentinel(s string) bool {
	switch strings.ToLower(strings.ReplaceAll(s, " ", "")) {
	case "알수없음", "unknown":
		return true
	}
	return false
}

func genderCode(tok string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "남", "남성", "남자", "male", "m":
		return "M", true
	case "여", "여성", "여자", "female", "f":
		return "F", true
	}
	return "", false
}

func normalizeAgeBucket(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || isUnknownSentinel(s) {
		return "Unknown"
	}
	if m := ageRangeRe.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2]
	}
	if m := ageOpenEndedRe.FindStringSubmatch(s); m != nil {
		return m[1] + "+"
	}
	// Pass through anything already canonical ("25-29", "60+").
	return strings.ReplaceAll(strings.TrimSuffix(s, "세"), "~", "-")
}

var dottedDateRe = regexp.MustCompile(`^(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?$`)

// cleanNaverGFADate rewrites Naver GFA's dotted dates ("2025.08.01.") in the
// "기간" column to ISO form without renaming the column; the coercer's date
// cast owns the actual parsing.
func cleanNaverGFADate(t *table.Table) error {
	const col = "기간"
	c := t.Column(col)
	if c == nil {
		return fmt.Errorf("naver_gfa_date: column %q not present", col)
	}
	for i, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if m := dottedDateRe.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			c.Values[i] = m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
		}
	}
	return nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
