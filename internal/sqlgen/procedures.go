package sqlgen

import (
	"fmt"
	"strings"

	"github.com/shepherrrd/efmigrate/internal/models"
)

// LanguageArgument names the anonymous argument that sets the PostgreSQL
// procedure language. The default is sql.
const LanguageArgument = "language"

func (g *Generator) createProcedure(o *models.ProcedureOperation, replace bool) ([]Statement, error) {
	kind := models.CreateProcedure
	if replace {
		kind = models.AlterProcedure
	}
	if g.dialect == SQLite {
		return nil, &UnsupportedError{Dialect: g.dialect, Kind: kind, Reason: "SQLite has no stored procedures"}
	}

	params := make([]string, 0, len(o.Parameters))
	for _, p := range o.Parameters {
		param, err := g.parameter(p)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	signature := fmt.Sprintf("%s(%s)", g.q(o.Name), strings.Join(params, ", "))

	if g.dialect == MySQL {
		create := Statement{SQL: fmt.Sprintf("CREATE PROCEDURE %s\nBEGIN\n%s\nEND", signature, o.BodySQL)}
		if !replace {
			return []Statement{create}, nil
		}
		return []Statement{{SQL: "DROP PROCEDURE IF EXISTS " + g.q(o.Name)}, create}, nil
	}

	verb := "CREATE"
	if replace {
		verb = "CREATE OR REPLACE"
	}
	language := "sql"
	if l, ok := o.Arguments()[LanguageArgument].(string); ok && l != "" {
		language = l
	}
	return single(fmt.Sprintf("%s PROCEDURE %s\nLANGUAGE %s\nAS $body$\n%s\n$body$", verb, signature, language, o.BodySQL)), nil
}

func (g *Generator) parameter(p *models.ParameterModel) (string, error) {
	name := g.ident(strings.TrimPrefix(p.Name, "@"))
	typ := g.driver.MapColumnType(&p.PropertyModel)

	if g.dialect == MySQL {
		mode := "IN"
		if p.IsOutParameter {
			mode = "OUT"
		}
		return fmt.Sprintf("%s %s %s", mode, name, typ), nil
	}

	param := name + " " + typ
	if p.IsOutParameter {
		param = "INOUT " + param
	}
	def, err := g.defaultValue(&p.PropertyModel)
	if err != nil {
		return "", err
	}
	if def != "" {
		param += " DEFAULT " + def
	}
	return param, nil
}
