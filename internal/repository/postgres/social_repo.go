package postgres

/*
Файл social_repo.go — слой доступа к социальному графу Instavibe
(Person, Post, Friendship). Единственное место с SQL по этим таблицам:
web-хендлеры и агентские фетчеры ходят через один репозиторий,
а не через свои копии запросов.
*/

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/instavibe/internal/domain"
)

type SocialRepo struct {
	db *sql.DB
}

// NewSocialRepo создает новый экземпляр репозитория
func NewSocialRepo(connString string, maxConns int) *SocialRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// В main мы проверим соединение через Ping
		log.Fatal(err)
	}
	if maxConns <= 0 {
		maxConns = 25
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &SocialRepo{db: db}
}

// Ping проверяет доступность базы при старте
func (r *SocialRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetAllPosts возвращает ленту: посты с именем автора, новые первыми.
func (r *SocialRepo) GetAllPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	query := `
		SELECT p.post_id, p.author_id, p.text, p.sentiment, p.post_timestamp,
		       author.name AS author_name
		FROM Post AS p
		JOIN Person AS author ON p.author_id = author.person_id
		ORDER BY p.post_timestamp DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// GetPostsByPerson возвращает посты конкретного автора.
func (r *SocialRepo) GetPostsByPerson(ctx context.Context, personID string) ([]domain.Post, error) {
	query := `
		SELECT p.post_id, p.author_id, p.text, p.sentiment, p.post_timestamp,
		       author.name AS author_name
		FROM Post AS p
		JOIN Person AS author ON p.author_id = author.person_id
		WHERE p.author_id = $1
		ORDER BY p.post_timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch posts for person %s: %w", personID, err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		var sentiment sql.NullString
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Text, &sentiment, &p.Timestamp, &p.AuthorName); err != nil {
			return nil, err
		}
		if sentiment.Valid {
			p.Sentiment = &sentiment.String
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPerson отдает профиль по ID.
func (r *SocialRepo) GetPerson(ctx context.Context, personID string) (*domain.Person, error) {
	query := `SELECT person_id, name, age FROM Person WHERE person_id = $1`

	p := &domain.Person{}
	var age sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, personID).Scan(&p.ID, &p.Name, &age)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // nil для 404 в хендлере
		}
		return nil, fmt.Errorf("postgres: failed to fetch person %s: %w", personID, err)
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	return p, nil
}

// GetPersonIDByName резолвит имя в person_id (для /api/posts и /api/events).
func (r *SocialRepo) GetPersonIDByName(ctx context.Context, name string) (string, error) {
	query := `SELECT person_id FROM Person WHERE name = $1 LIMIT 1`

	var id string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("postgres: failed to resolve person %q: %w", name, err)
	}
	return id, nil
}

// GetFriends выбирает друзей с обеих сторон таблицы Friendship.
func (r *SocialRepo) GetFriends(ctx context.Context, personID string) ([]domain.Friend, error) {
	query := `
		WITH friend_ids AS (
			SELECT person_id_b AS friend_id FROM Friendship WHERE person_id_a = $1
			UNION
			SELECT person_id_a AS friend_id FROM Friendship WHERE person_id_b = $1
		)
		SELECT p.person_id, p.name
		FROM Person p
		JOIN friend_ids f ON p.person_id = f.friend_id
		ORDER BY p.name`

	rows, err := r.db.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch friends of %s: %w", personID, err)
	}
	defer rows.Close()

	var friends []domain.Friend
	for rows.Next() {
		var f domain.Friend
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// AddPost вставляет новый пост.
func (r *SocialRepo) AddPost(ctx context.Context, p *domain.Post) error {
	query := `
		INSERT INTO Post (post_id, author_id, text, sentiment, post_timestamp, create_time)
		VALUES ($1, $2, $3, $4, $5, NOW() AT TIME ZONE 'UTC')`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.AuthorID, p.Text, p.Sentiment, p.Timestamp)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert post %s: %w", p.ID, err)
	}
	return nil
}
