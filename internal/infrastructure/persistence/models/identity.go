package models

import (
	"time"

	"github.com/carconfig/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity
type UserModel struct {
	ID                  int64     `gorm:"primaryKey"`
	Email               string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name                string    `gorm:"type:varchar(200);not null"`
	PasswordHash        string    `gorm:"type:varchar(255);not null"`
	IsGoodClient        bool      `gorm:"not null;default:false"`
	HasCarConfiguration bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:                  m.ID,
		Email:               m.Email,
		Name:                m.Name,
		PasswordHash:        m.PasswordHash,
		IsGoodClient:        m.IsGoodClient,
		HasCarConfiguration: m.HasCarConfiguration,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User entity
func UserModelFromDomain(u *identity.User) *UserModel {
	return &UserModel{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		PasswordHash:        u.PasswordHash,
		IsGoodClient:        u.IsGoodClient,
		HasCarConfiguration: u.HasCarConfiguration,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
