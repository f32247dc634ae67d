package subscription

import (
	"gorm.io/gorm/clause"
)

func orderClause(sortBy, sortOrder string) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{{
		Column: clause.Column{Name: sortBy},
		Desc:   sortOrder != "asc",
	}}}
}
