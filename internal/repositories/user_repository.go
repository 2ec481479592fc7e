package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/mugishapc/bvoice/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence. Only last_seen and the push
// subscription are mutated by this service.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	UpdateLastSeen(ctx context.Context, userID int) error
	SetPushSubscription(ctx context.Context, userID int, subscription string) error
	ClearPushSubscription(ctx context.Context, userID int) error
	GetPushSubscription(ctx context.Context, userID int) (*string, error)
	GetUsernames(ctx context.Context, userIDs []int) (map[int]string, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, email, status, last_seen, push_subscription FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateLastSeen stamps the user's last_seen with the server clock.
func (r *UserRepo) UpdateLastSeen(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id=$1`, userID)
	return err
}

// SetPushSubscription stores the opaque subscription blob for the user.
func (r *UserRepo) SetPushSubscription(ctx context.Context, userID int, subscription string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET push_subscription=$2 WHERE id=$1`, userID, subscription)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearPushSubscription drops the stored subscription, used when the push
// provider reports it permanently gone.
func (r *UserRepo) ClearPushSubscription(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET push_subscription=NULL WHERE id=$1`, userID)
	return err
}

// GetPushSubscription returns the stored blob, or nil when absent.
func (r *UserRepo) GetPushSubscription(ctx context.Context, userID int) (*string, error) {
	var subscription *string
	err := r.db.GetContext(ctx, &subscription, `SELECT push_subscription FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return subscription, err
}

// GetUsernames resolves display names for a set of user ids in one query.
func (r *UserRepo) GetUsernames(ctx context.Context, userIDs []int) (map[int]string, error) {
	names := make(map[int]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	query, args, err := sqlx.In(`SELECT id, username FROM users WHERE id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       int
			username string
		)
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		names[id] = username
	}
	return names, rows.Err()
}
