package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures list parameters. CreatedBy is the row-level scope for the
// user role and must be set by callers listing on behalf of such a profile.
type TicketFilter struct {
	CreatedBy  *string
	AssignedTo *string
	CategoryID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	SearchTerm *string
	// Limit <= 0 returns every matching row.
	Limit  int
	Offset int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetViewByID(ctx context.Context, id string) (*domain.TicketView, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.subject, t.description, t.status::text, t.priority::text, t.created_by,
        t.assigned_to, t.category_id, t.attachment_url, t.upvotes, t.downvotes,
        t.created_at, t.updated_at, t.resolved_at, t.closed_at`

const ticketViewSelect = `SELECT ` + ticketColumns + `,
        c.name, c.color,
        cp.display_name, cp.email,
        ap.display_name, ap.email
    FROM tickets t
    JOIN profiles cp ON cp.id = t.created_by
    LEFT JOIN ticket_categories c ON c.id = t.category_id
    LEFT JOIN profiles ap ON ap.id = t.assigned_to`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (subject, description, status, priority, created_by, assigned_to, category_id,
            attachment_url, upvotes, downvotes, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		string(ticket.Status),
		string(ticket.Priority),
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.CategoryID,
		ticket.AttachmentURL,
		ticket.Upvotes,
		ticket.Downvotes,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, assigned_to=$3, category_id=$4,
            upvotes=$5, downvotes=$6, resolved_at=$7, closed_at=$8, updated_at=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		string(ticket.Status),
		string(ticket.Priority),
		ticket.AssignedTo,
		ticket.CategoryID,
		ticket.Upvotes,
		ticket.Downvotes,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketDest(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetViewByID(ctx context.Context, id string) (*domain.TicketView, error) {
	rows, err := r.pool.Query(ctx, ticketViewSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views, err := scanTicketViews(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &views[0], nil
}

// List returns joined rows ordered newest first.
func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error) {
	where, args := buildTicketWhere(filter)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id`, ticketViewSelect, where)
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketViews(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := buildTicketWhere(filter)
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&total)
	return total, err
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("t.category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status::text IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, string(pr))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority::text IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		search := "%" + escapeLike(strings.ToLower(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.subject) LIKE %s OR LOWER(t.description) LIKE %s)", placeholder, placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func ticketDest(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Subject,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatedBy,
		&t.AssignedTo,
		&t.CategoryID,
		&t.AttachmentURL,
		&t.Upvotes,
		&t.Downvotes,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ResolvedAt,
		&t.ClosedAt,
	}
}

func scanTicketViews(rows pgx.Rows) ([]domain.TicketView, error) {
	result := []domain.TicketView{}
	for rows.Next() {
		var (
			view                        domain.TicketView
			categoryName, categoryColor *string
			assigneeName, assigneeEmail *string
		)
		dest := append(ticketDest(&view.Ticket),
			&categoryName, &categoryColor,
			&view.Creator.DisplayName, &view.Creator.Email,
			&assigneeName, &assigneeEmail,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if categoryName != nil {
			view.Category = &domain.CategoryRef{Name: *categoryName, Color: categoryColor}
		}
		if assigneeName != nil {
			view.Assignee = &domain.PersonRef{DisplayName: *assigneeName}
			if assigneeEmail != nil {
				view.Assignee.Email = *assigneeEmail
			}
		}
		result = append(result, view)
	}
	return result, rows.Err()
}
