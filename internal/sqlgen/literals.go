package sqlgen

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shepherrrd/efmigrate/internal/models"
)

func (g *Generator) quoteString(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	if g.dialect == MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}

// literal renders a default value as a SQL expression.
func (g *Generator) literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return g.quoteString(x), nil
	case bool:
		if g.dialect == Postgres {
			return strings.ToUpper(strconv.FormatBool(x)), nil
		}
		if x {
			return "1", nil
		}
		return "0", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return g.float(float64(x), 32)
	case float64:
		return g.float(x, 64)
	case []byte:
		if g.dialect == Postgres {
			return `'\x` + hex.EncodeToString(x) + "'::bytea", nil
		}
		return "X'" + hex.EncodeToString(x) + "'", nil
	case time.Time:
		layout := "2006-01-02 15:04:05.999999"
		if g.dialect == Postgres {
			layout += "-07:00"
		}
		return g.quoteString(x.Format(layout)), nil
	case time.Duration:
		return g.quoteString(formatDuration(x)), nil
	case uuid.UUID:
		return g.quoteString(x.String()), nil
	case models.SpatialValue:
		return g.spatial(x)
	}
	return "", fmt.Errorf("cannot convert a value of type %T to sql", v)
}

func (g *Generator) float(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		if g.dialect != Postgres {
			return "", fmt.Errorf("%s cannot store %v", g.dialect, f)
		}
		switch {
		case math.IsNaN(f):
			return "'NaN'", nil
		case f > 0:
			return "'Infinity'", nil
		}
		return "'-Infinity'", nil
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

// formatDuration renders d as [-]HH:MM:SS[.ffffff], which every dialect
// accepts for time and interval columns.
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	s := fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, seconds)
	if micros := d / time.Microsecond; micros > 0 {
		s += strings.TrimRight(fmt.Sprintf(".%06d", micros), "0")
	}
	return s
}

func (g *Generator) spatial(v models.SpatialValue) (string, error) {
	switch g.dialect {
	case Postgres:
		if v.Kind == models.Geography {
			return "ST_GeogFromText(" + g.quoteString(v.String()) + ")", nil
		}
		return fmt.Sprintf("ST_GeomFromText(%s, %d)", g.quoteString(v.WellKnownText), v.SRID), nil
	case MySQL:
		// MySQL only accepts expression defaults in parentheses.
		return fmt.Sprintf("(ST_GeomFromText(%s, %d))", g.quoteString(v.WellKnownText), v.SRID), nil
	}
	return "", fmt.Errorf("%s has no spatial types", g.dialect)
}
