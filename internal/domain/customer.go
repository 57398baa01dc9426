package domain

type Customer struct {
	ID       int64
	Handle   string
	FullName string
}
