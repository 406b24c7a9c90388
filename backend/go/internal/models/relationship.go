package models

// Relationship maps a relation phrase ("wife") to a category ("spouse").
type Relationship struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Relationship string `json:"relationship" gorm:"uniqueIndex;size:191;not null"`
	Category     string `json:"category" gorm:"size:255"`
}

// TableName keeps the table name stable across the SQLite and MySQL backends.
func (Relationship) TableName() string {
	return "relationships"
}

// RelationEdge is one owner -> person link in the relation graph.
type RelationEdge struct {
	Owner    string `json:"owner"`
	Relation string `json:"relation"`
	Category string `json:"category"`
}
