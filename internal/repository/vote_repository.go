package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// VoteRepository stores one vote per (ticket, profile).
type VoteRepository interface {
	// Get returns pgx.ErrNoRows when the profile has not voted.
	Get(ctx context.Context, ticketID, userID string) (*domain.TicketVote, error)
	Upsert(ctx context.Context, vote *domain.TicketVote) error
	Delete(ctx context.Context, ticketID, userID string) error
}

type voteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository builds repository.
func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &voteRepository{pool: pool}
}

func (r *voteRepository) Get(ctx context.Context, ticketID, userID string) (*domain.TicketVote, error) {
	const query = `
        SELECT id, ticket_id, user_id, vote_type, created_at
        FROM ticket_votes WHERE ticket_id=$1 AND user_id=$2`
	var vote domain.TicketVote
	if err := r.pool.QueryRow(ctx, query, ticketID, userID).Scan(
		&vote.ID,
		&vote.TicketID,
		&vote.UserID,
		&vote.VoteType,
		&vote.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) Upsert(ctx context.Context, vote *domain.TicketVote) error {
	const query = `
        INSERT INTO ticket_votes (ticket_id, user_id, vote_type)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, user_id) DO UPDATE SET vote_type = EXCLUDED.vote_type
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		vote.TicketID,
		vote.UserID,
		string(vote.VoteType),
	).Scan(&vote.ID, &vote.CreatedAt)
}

func (r *voteRepository) Delete(ctx context.Context, ticketID, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_votes WHERE ticket_id=$1 AND user_id=$2`, ticketID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
