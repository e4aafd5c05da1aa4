package mock

import (
	"context"

	"github.com/hmgdev/hmg-index/internal/sources/external"
)

type Client struct {
	UserList []external.User
	Quote    external.Quote
	Err      error
	Posts    []external.Post
}

func (c *Client) Users(ctx context.Context) ([]external.User, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.UserList, nil
}

func (c *Client) CreatePost(ctx context.Context, post external.Post) (external.Post, error) {
	if c.Err != nil {
		return external.Post{}, c.Err
	}
	c.Posts = append(c.Posts, post)
	post.ID = 100 + len(c.Posts)
	return post, nil
}

func (c *Client) QuoteOfDay(ctx context.Context) (external.Quote, error) {
	if c.Err != nil {
		return external.Quote{}, c.Err
	}
	return c.Quote, nil
}
