package entity

import (
	"context"
	"iter"
	"strings"
	"time"
)

// LeadStatusNew is the status every lead starts with. Leads accept any
// non-empty status afterwards; there is no enum on purpose.
const LeadStatusNew = "new"

type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type NewLeadInput struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
}

// LeadRepository is implemented by every storage adapter. List yields a
// snapshot: the loop body may call back into the repository.
type LeadRepository interface {
	Create(ctx context.Context, in NewLeadInput) (int64, error)
	Get(ctx context.Context, id int64) (*Lead, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	List(ctx context.Context, filter LeadFilter) iter.Seq2[*Lead, error]
	FindByEmail(ctx context.Context, email string) ([]*Lead, error)
}

// NewLead validates the input and builds a lead ready to be inserted.
func NewLead(in NewLeadInput, now time.Time) (*Lead, error) {
	name, err := requiredText("name", in.Name, MaxLeadNameLength)
	if err != nil {
		return nil, err
	}
	company, err := optionalText("company", in.Company, MaxLeadCompanyLength)
	if err != nil {
		return nil, err
	}
	email, err := optionalText("email", in.Email, MaxLeadEmailLength)
	if err != nil {
		return nil, err
	}

	return &Lead{
		Name:      name,
		Company:   company,
		Email:     email,
		Status:    LeadStatusNew,
		CreatedAt: Timestamp(now),
	}, nil
}

// NormalizeLeadStatus trims the status and rejects an empty one.
func NormalizeLeadStatus(status string) (string, error) {
	s := strings.TrimSpace(status)
	if s == "" {
		return "", ValidationError{"status", "is required"}
	}
	return s, nil
}

// NormalizeEmail trims the lookup key. Matching is exact otherwise.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
