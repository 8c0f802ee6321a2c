package domain

type User struct {
	ID       int64
	Email    string
	FullName string
}
