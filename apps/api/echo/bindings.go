package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core"
)

const orderingParam = "ordering"

// bindOrdering reads the comma separated `ordering` query param ("-field" for descending).
// Fields missing from allowed are dropped; their stored names replace the public ones.
// defaults is returned when no field is left.
func bindOrdering(ctx echo.Context, allowed map[string]string, defaults []core.DBOrdering) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return defaults
	}

	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if stored, ok := allowed[field]; ok {
			orderings = append(orderings, core.DBOrdering{Field: stored, Ascending: !descending})
		}
	}
	if len(orderings) == 0 {
		return defaults
	}
	return orderings
}

// bindQuery binds the query params into filter. Body and path params are ignored.
func bindQuery(ctx echo.Context, filter interface{}) error {
	return (&echo.DefaultBinder{}).BindQueryParams(ctx, filter)
}
