// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns. Repositories convert between the two with the ToDomain and
// FromDomain mappers defined next to each model.
package models

// All returns every model in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&CarModelModel{},
		&AccessoryModel{},
		&AccessoryConstraintModel{},
		&UserModel{},
		&ConfigurationModel{},
		&ConfigurationAccessoryModel{},
	}
}
