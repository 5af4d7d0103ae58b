package model

// User is the signed in customer as the identity provider reports it.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
