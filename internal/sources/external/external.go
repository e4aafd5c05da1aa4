// Package external covers the public sample APIs: JSONPlaceholder and
// ZenQuotes.
package external

import "context"

type User struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Website  string   `json:"website"`
	Address  *Address `json:"address,omitempty"`
	Company  *Company `json:"company,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

type Post struct {
	ID     int    `json:"id,omitempty"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Quote is one ZenQuotes entry: q is the text, a the author.
type Quote struct {
	Text   string `json:"q"`
	Author string `json:"a"`
}

type Placeholder interface {
	Users(ctx context.Context) ([]User, error)
	CreatePost(ctx context.Context, post Post) (Post, error)
}

type Quotes interface {
	QuoteOfDay(ctx context.Context) (Quote, error)
}
