package model

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"          json:"email"`
	ScreenName   string `gorm:"type:varchar(50)"                                json:"screen_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"                      json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DisplayName 优先使用昵称，未设置时回退到邮箱
func (u *User) DisplayName() string {
	if u.ScreenName != "" {
		return u.ScreenName
	}
	return u.Email
}
