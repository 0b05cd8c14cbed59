package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shepherrrd/efmigrate/internal/models"
)

const (
	timeImport = "time"
	uuidImport = "github.com/google/uuid"
	mathImport = "math"
)

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// FallbackClassName replaces a name with no identifier characters at all.
const FallbackClassName = "Migration"

// ScrubName turns name into a Go identifier. Characters other than letters,
// digits and connector punctuation are dropped, connectors become '_', and
// the result is prefixed with '_' when it does not start with a letter or is
// a keyword. A name with nothing left becomes FallbackClassName.
func ScrubName(name string) string {
	scrubbed := scrub(name)
	if scrubbed == "" {
		return FallbackClassName
	}
	return scrubbed
}

func scrub(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.Is(unicode.Pc, r):
			b.WriteByte('_')
		}
	}
	scrubbed := b.String()
	if scrubbed == "" {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(scrubbed)
	if !unicode.IsLetter(first) || goKeywords[scrubbed] {
		scrubbed = "_" + scrubbed
	}
	return scrubbed
}

var lower = cases.Lower(language.Und)

// PackageName derives the Go package name from the last segment of a
// namespace such as "Contoso.Data.Migrations" or "contoso/data/migrations".
func PackageName(namespace string) string {
	namespace = strings.TrimSpace(namespace)
	if i := strings.LastIndexAny(namespace, "./"); i >= 0 {
		namespace = namespace[i+1:]
	}
	if name := scrub(lower.String(namespace)); name != "" {
		return name
	}
	return "migrations"
}

func quote(s string) string { return strconv.Quote(s) }

// quoteBody prefers a raw string so SQL bodies stay readable.
func quoteBody(s string) string {
	if s == "" || strings.ContainsAny(s, "`\r") || !utf8.ValidString(s) {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

func stringSlice(values []string) string {
	if len(values) == 0 {
		return "nil"
	}
	return "[]string{" + strings.Join(quoteAll(values), ", ") + "}"
}

// formatFloat renders f so the literal reads back as a floating point
// constant: it always has a decimal point or an exponent.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// literal renders v as a Go expression. Numbers are formatted with strconv
// so the output never depends on a locale.
func literal(s *source, v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "nil", nil
	case string:
		return quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8:
		return "int8(" + strconv.FormatInt(int64(x), 10) + ")", nil
	case int16:
		return "int16(" + strconv.FormatInt(int64(x), 10) + ")", nil
	case int32:
		return "int32(" + strconv.FormatInt(int64(x), 10) + ")", nil
	case int64:
		return "int64(" + strconv.FormatInt(x, 10) + ")", nil
	case uint:
		return "uint(" + strconv.FormatUint(uint64(x), 10) + ")", nil
	case uint8:
		return "byte(" + strconv.FormatUint(uint64(x), 10) + ")", nil
	case uint16:
		return "uint16(" + strconv.FormatUint(uint64(x), 10) + ")", nil
	case uint32:
		return "uint32(" + strconv.FormatUint(uint64(x), 10) + ")", nil
	case uint64:
		return "uint64(" + strconv.FormatUint(x, 10) + ")", nil
	case float64:
		switch {
		case math.IsNaN(x):
			s.use(mathImport)
			return "math.NaN()", nil
		case math.IsInf(x, 1):
			s.use(mathImport)
			return "math.Inf(1)", nil
		case math.IsInf(x, -1):
			s.use(mathImport)
			return "math.Inf(-1)", nil
		}
		return formatFloat(x, 64), nil
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			inner, _ := literal(s, f)
			return "float32(" + inner + ")", nil
		}
		return "float32(" + strconv.FormatFloat(f, 'g', -1, 32) + ")", nil
	case []byte:
		parts := make([]string, len(x))
		for i, c := range x {
			parts[i] = fmt.Sprintf("0x%02x", c)
		}
		return "[]byte{" + strings.Join(parts, ", ") + "}", nil
	case []string:
		if x == nil {
			return "[]string(nil)", nil
		}
		return "[]string{" + strings.Join(quoteAll(x), ", ") + "}", nil
	case time.Time:
		s.use(timeImport)
		return timeLiteral(x), nil
	case time.Duration:
		s.use(timeImport)
		return "time.Duration(" + strconv.FormatInt(int64(x), 10) + ")", nil
	case uuid.UUID:
		s.use(uuidImport)
		return "uuid.MustParse(" + quote(x.String()) + ")", nil
	case models.SpatialValue:
		return spatialLiteral(x)
	}
	return "", fmt.Errorf("cannot render a value of type %T", v)
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return quoted
}

func timeLiteral(t time.Time) string {
	name, offset := t.Zone()
	location := "time.UTC"
	if t.Location() != time.UTC && !(offset == 0 && name == "UTC") {
		location = "time.FixedZone(" + quote(name) + ", " + strconv.Itoa(offset) + ")"
	}
	return fmt.Sprintf("time.Date(%d, time.%s, %d, %d, %d, %d, %d, %s)",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), location)
}

func spatialLiteral(v models.SpatialValue) (string, error) {
	var fn string
	var srid int
	switch v.Kind {
	case models.Geography:
		fn, srid = "GeographyFromText", models.DefaultGeographySRID
	case models.Geometry:
		fn, srid = "GeometryFromText", models.DefaultGeometrySRID
	default:
		return "", fmt.Errorf("spatial value has non-spatial kind %s", v.Kind)
	}
	if v.SRID == srid {
		return qualifier + fn + "(" + quote(v.WellKnownText) + ")", nil
	}
	return qualifier + fn + "(" + quote(v.WellKnownText) + ", " + strconv.Itoa(v.SRID) + ")", nil
}
