package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"pizza-service/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

var (
	resolveOrderSQL = regexp.QuoteMeta("UPDATE orders")
	findOrderSQL    = regexp.QuoteMeta("SELECT id, diner_id, franchise_id, store_id, status")
	findItemsSQL    = regexp.QuoteMeta("FROM order_items")
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	return mock
}

func orderColumns() []string {
	return []string{"id", "diner_id", "franchise_id", "store_id", "status", "job_token", "report_url", "created_at", "updated_at"}
}

func TestOrderRepository_Resolve(t *testing.T) {
	jobToken := "factory.job.token"
	reportURL := "http://factory/report/1"

	tests := []struct {
		name    string
		status  entity.OrderStatus
		expect  func(mock pgxmock.PgxPoolIface, id uuid.UUID)
		wantErr error
	}{
		{
			name:   "pending order resolved",
			status: entity.OrderStatusFulfilled,
			expect: func(mock pgxmock.PgxPoolIface, id uuid.UUID) {
				mock.ExpectExec(resolveOrderSQL).
					WithArgs(id, entity.OrderStatusFulfilled, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name:   "already resolved",
			status: entity.OrderStatusFailedAtFactory,
			expect: func(mock pgxmock.PgxPoolIface, id uuid.UUID) {
				mock.ExpectExec(resolveOrderSQL).
					WithArgs(id, entity.OrderStatusFailedAtFactory, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				now := time.Now()
				mock.ExpectQuery(findOrderSQL).
					WithArgs(id).
					WillReturnRows(mock.NewRows(orderColumns()).AddRow(
						id, uuid.New(), uuid.New(), uuid.New(), entity.OrderStatusFulfilled,
						&jobToken, &reportURL, now, now,
					))
				mock.ExpectQuery(findItemsSQL).
					WithArgs(id).
					WillReturnRows(mock.NewRows([]string{"menu_id", "description", "price"}))
			},
			wantErr: ErrAlreadyResolved,
		},
		{
			name:   "unknown order",
			status: entity.OrderStatusFulfilled,
			expect: func(mock pgxmock.PgxPoolIface, id uuid.UUID) {
				mock.ExpectExec(resolveOrderSQL).
					WithArgs(id, entity.OrderStatusFulfilled, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(findOrderSQL).
					WithArgs(id).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewOrderRepository(mock, zap.NewNop())
			id := uuid.New()
			tt.expect(mock, id)

			err := repo.Resolve(context.Background(), id, tt.status, &jobToken, &reportURL)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestOrderRepository_ResolveRejectsNonTerminal(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOrderRepository(mock, zap.NewNop())

	if err := repo.Resolve(context.Background(), uuid.New(), entity.OrderStatusPending, nil, nil); err == nil {
		t.Fatal("expected pending -> pending to be rejected")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no statements, got %v", err)
	}
}

func TestUserRepository_Create(t *testing.T) {
	insertUserSQL := regexp.QuoteMeta("INSERT INTO users")
	connReset := errors.New("connection reset by peer")

	tests := []struct {
		name    string
		expect  func(mock pgxmock.PgxPoolIface, user *entity.User)
		wantErr error
	}{
		{
			name: "email taken",
			expect: func(mock pgxmock.PgxPoolIface, user *entity.User) {
				mock.ExpectBegin()
				mock.ExpectExec(insertUserSQL).
					WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
				mock.ExpectRollback()
			},
			wantErr: ErrDuplicateEmail,
		},
		{
			name: "other failure passed through",
			expect: func(mock pgxmock.PgxPoolIface, user *entity.User) {
				mock.ExpectBegin()
				mock.ExpectExec(insertUserSQL).
					WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
					WillReturnError(connReset)
				mock.ExpectRollback()
			},
			wantErr: connReset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewUserRepository(mock, zap.NewNop())

			now := time.Now()
			user := &entity.User{
				Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				Name:         "pizza diner",
				Email:        "d@jwt.com",
				PasswordHash: "hash",
				Roles:        []entity.RoleBinding{entity.DinerRole()},
			}
			tt.expect(mock, user)

			err := repo.Create(context.Background(), user)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSessionRepository_RevokeReportsTransition(t *testing.T) {
	revokeSQL := regexp.QuoteMeta("UPDATE sessions")

	for _, tt := range []struct {
		name string
		rows int64
		want bool
	}{
		{"live session", 1, true},
		{"already revoked or unknown", 0, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewSessionRepository(mock, zap.NewNop())

			mock.ExpectExec(revokeSQL).
				WithArgs("hash", pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			revoked, err := repo.Revoke(context.Background(), "hash")
			if err != nil {
				t.Fatalf("revoke: %v", err)
			}
			if revoked != tt.want {
				t.Fatalf("expected revoked=%v, got %v", tt.want, revoked)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSessionRepository_RevokeAllUserSessions(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSessionRepository(mock, zap.NewNop())
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WITH revoked AS")).
		WithArgs(userID, pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(2))

	live, err := repo.RevokeAllUserSessions(context.Background(), userID)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if live != 2 {
		t.Fatalf("expected 2 live sessions, got %d", live)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
