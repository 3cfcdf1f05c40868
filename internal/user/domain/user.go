package domain

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// User 用户实体，购物车提醒只依赖联系方式字段
type User struct {
	gorm.Model
	// UserID 业务主键
	UserID    string `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null"`
	FirstName string `gorm:"column:first_name;type:varchar(64)"`
	LastName  string `gorm:"column:last_name;type:varchar(64)"`
	Email     string `gorm:"column:email;type:varchar(128);index"`
	Mobile    string `gorm:"column:mobile;type:varchar(32);index"`
}

func (User) TableName() string { return "users" }

// DisplayName 显示名，姓名为空时回退到通用称呼
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "customer"
	}
	return name
}

// UserRepository 用户查询仓储
type UserRepository interface {
	GetByUserID(ctx context.Context, userID string) (*User, error)
}
