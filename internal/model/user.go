package model

import "time"

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Location     string    `gorm:"size:120" json:"location"`
	Bio          string    `gorm:"type:text" json:"bio"`
	PaymentInfo  string    `gorm:"column:payment_info;type:text" json:"paymentInfo"`
	CreatedAt    time.Time `gorm:"type:datetime(6)" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"type:datetime(6)" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// ProfileUpdate carries the user editable profile fields.
type ProfileUpdate struct {
	Location    string
	Bio         string
	PaymentInfo string
}
