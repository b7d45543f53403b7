package domain

import "time"

// Person — профиль пользователя Instavibe.
type Person struct {
	ID        string    `json:"person_id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"create_time,omitempty"`
}

// Friend — сокращенная запись для списка друзей.
type Friend struct {
	ID   string `json:"person_id"`
	Name string `json:"name"`
}

// Post — запись в ленте вместе с именем автора (join с Person).
type Post struct {
	ID         string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Text       string    `json:"text"`
	Sentiment  *string   `json:"sentiment,omitempty"`
	Timestamp  time.Time `json:"post_timestamp"`
}
