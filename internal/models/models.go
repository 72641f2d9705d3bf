package models

// The local database is a leftover from the pre-integration storefront. It
// still owns user records created at signup and the payment-method book; cart
// lines and addresses live upstream and the fallback tables are only read
// when the upstream is unreachable for a logged-in user.

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	LoginID      string `gorm:"uniqueIndex;not null"     json:"login_id"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type PaymentMethod struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string `gorm:"index;not null"           json:"user_id"`
	Nickname  string `json:"nickname"`
	Brand     string `json:"brand"`
	Last4     string `gorm:"not null"                 json:"last4"`
	ExpMonth  int    `json:"exp_month"`
	ExpYear   int    `json:"exp_year"`
	IsDefault bool   `gorm:"default:false"            json:"is_default"`
}

type FallbackCartItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"   json:"id"`
	UserID    string `gorm:"index;not null"             json:"user_id"`
	ProductID string `gorm:"not null"                   json:"product_id"`
	Name      string `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int    `gorm:"default:1;check:quantity>0" json:"quantity"`
}

type FallbackAddress struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string `gorm:"index;not null"           json:"user_id"`
	Kind          string `gorm:"not null;default:delivery" json:"type"`
	LastName      string `json:"last_name"`
	FirstName     string `json:"first_name"`
	LastNameKana  string `json:"last_name_kana"`
	FirstNameKana string `json:"first_name_kana"`
	PostalCode    string `json:"postal_code"`
	Prefecture    string `json:"prefecture"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Street        string `json:"street"`
	Building      string `json:"building"`
	Room          string `json:"room"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	IsDefault     bool   `gorm:"default:false"            json:"is_default"`
}
