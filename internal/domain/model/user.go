package model

type User struct {
	UserID  int64
	IsAdmin bool
}
