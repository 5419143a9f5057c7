package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// byOrder sorts by the quoted "order" column, then id.
func byOrder(db *gorm.DB, desc bool) *gorm.DB {
	return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "order"}, Desc: desc},
		{Column: clause.Column{Name: "id"}},
	}})
}
