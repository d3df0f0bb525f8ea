package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
)

const (
	tableFamilies = "families"

	// AutocompleteLimit caps family suggestions.
	AutocompleteLimit = 15
)

var familyColumns = []string{"id", "head_of_household_name", "address", "phone_number", "created_at"}

type FamilyRepository interface {
	List(ctx context.Context, filter entity.FamilyFilter) ([]entity.FamilySummary, int, error)
	Autocomplete(ctx context.Context, term string) ([]entity.FamilySummary, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Family, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int, error)
	// Create inserts the family and its members in one transaction.
	Create(ctx context.Context, family *entity.Family, members []*entity.Member) error
	// AddMembers inserts members under an existing family in one transaction.
	AddMembers(ctx context.Context, familyID uuid.UUID, members []*entity.Member) error
	Update(ctx context.Context, family *entity.Family) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type familyRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewFamilyRepository(db *DB, logger *slog.Logger) FamilyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &familyRepository{
		db:     db,
		logger: logger,
	}
}

// familySearchText is the lowercase haystack family searches run against.
// Folding happens here because SQLite's LOWER only folds ASCII.
func familySearchText(f *entity.Family) string {
	parts := []string{f.HeadOfHouseholdName}
	if f.Address != nil {
		parts = append(parts, *f.Address)
	}
	if f.PhoneNumber != nil {
		parts = append(parts, *f.PhoneNumber)
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

func (r *familyRepository) searchPredicate(term string, includeMembers bool) *entsql.Predicate {
	term = strings.ToLower(strings.TrimSpace(term))
	preds := []*entsql.Predicate{entsql.Contains("search_text", term)}
	if includeMembers {
		sub := r.db.builder().Select("family_id").
			From(r.db.builder().Table(tableMembers)).
			Where(entsql.Contains("name_fold", term))
		preds = append(preds, entsql.In("id", sub))
	}
	return entsql.Or(preds...)
}

func (r *familyRepository) List(ctx context.Context, filter entity.FamilyFilter) ([]entity.FamilySummary, int, error) {
	b := r.db.builder()

	count := b.Select(entsql.Count("*")).From(b.Table(tableFamilies))
	if strings.TrimSpace(filter.Search) != "" {
		count.Where(r.searchPredicate(filter.Search, true))
	}
	query, args := count.Query()
	var total int
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		r.logger.Error("failed to count families", "error", err)
		return nil, 0, mapError(err, "family")
	}

	sel := b.Select(familyColumns...).From(b.Table(tableFamilies)).
		OrderBy("head_of_household_name", "id")
	if strings.TrimSpace(filter.Search) != "" {
		sel.Where(r.searchPredicate(filter.Search, true))
	}
	if filter.Limit > 0 {
		sel.Limit(filter.Limit).Offset(filter.Offset)
	}
	families, err := r.queryFamilies(ctx, sel)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.summarize(ctx, families)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *familyRepository) Autocomplete(ctx context.Context, term string) ([]entity.FamilySummary, error) {
	if strings.TrimSpace(term) == "" {
		return []entity.FamilySummary{}, nil
	}
	b := r.db.builder()
	sel := b.Select(familyColumns...).From(b.Table(tableFamilies)).
		Where(r.searchPredicate(term, false)).
		OrderBy("head_of_household_name", "id").
		Limit(AutocompleteLimit)
	families, err := r.queryFamilies(ctx, sel)
	if err != nil {
		return nil, err
	}
	return r.summarize(ctx, families)
}

func (r *familyRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Family, error) {
	b := r.db.builder()
	query, args := b.Select(familyColumns...).From(b.Table(tableFamilies)).
		Where(entsql.EQ("id", id)).Query()
	f, err := scanFamily(r.db.sql.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "family")
	}
	return f, nil
}

func (r *familyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	b := r.db.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableFamilies)).
		Where(entsql.EQ("id", id)).Query()
	var n int
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("failed to check family existence", "family_id", id, "error", err)
		return false, mapError(err, "family")
	}
	return n > 0, nil
}

func (r *familyRepository) Count(ctx context.Context) (int, error) {
	b := r.db.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableFamilies)).Query()
	var n int
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "family")
	}
	return n, nil
}

func (r *familyRepository) Create(ctx context.Context, family *entity.Family, members []*entity.Member) error {
	if family.ID == uuid.Nil {
		family.ID = uuid.New()
	}
	if family.CreatedAt.IsZero() {
		family.CreatedAt = time.Now().UTC()
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		query, args := r.db.builder().Insert(tableFamilies).
			Columns(append(familyColumns, "search_text")...).
			Values(family.ID, family.HeadOfHouseholdName, family.Address, family.PhoneNumber, family.CreatedAt, familySearchText(family)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		return insertMembers(ctx, r.db, tx, family.ID, members)
	})
	if err != nil {
		r.logger.Error("failed to create family", "head", family.HeadOfHouseholdName, "error", err)
		return mapError(err, "family")
	}
	r.logger.Info("family created", "family_id", family.ID, "members", len(members))
	return nil
}

func (r *familyRepository) AddMembers(ctx context.Context, familyID uuid.UUID, members []*entity.Member) error {
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		return insertMembers(ctx, r.db, tx, familyID, members)
	})
	if err != nil {
		r.logger.Error("failed to add members", "family_id", familyID, "error", err)
		return mapError(err, "member")
	}
	return nil
}

func (r *familyRepository) Update(ctx context.Context, family *entity.Family) error {
	query, args := r.db.builder().Update(tableFamilies).
		Set("head_of_household_name", family.HeadOfHouseholdName).
		Set("address", family.Address).
		Set("phone_number", family.PhoneNumber).
		Set("search_text", familySearchText(family)).
		Where(entsql.EQ("id", family.ID)).
		Query()
	return execAffectingOne(ctx, r.db.sql, query, args, "family")
}

func (r *familyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.db.builder().Delete(tableFamilies).Where(entsql.EQ("id", id)).Query()
	if err := execAffectingOne(ctx, r.db.sql, query, args, "family"); err != nil {
		return err
	}
	r.logger.Info("family deleted", "family_id", id)
	return nil
}

func (r *familyRepository) queryFamilies(ctx context.Context, sel *entsql.Selector) ([]*entity.Family, error) {
	query, args := sel.Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list families", "error", err)
		return nil, mapError(err, "family")
	}
	defer rows.Close()

	var out []*entity.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, mapError(err, "family")
		}
		out = append(out, f)
	}
	return out, mapError(rows.Err(), "family")
}

// summarize attaches member counts to families in one grouped query.
func (r *familyRepository) summarize(ctx context.Context, families []*entity.Family) ([]entity.FamilySummary, error) {
	items := make([]entity.FamilySummary, 0, len(families))
	if len(families) == 0 {
		return items, nil
	}
	ids := make([]any, len(families))
	for i, f := range families {
		ids[i] = f.ID
	}

	b := r.db.builder()
	query, args := b.Select("family_id", "is_alive", entsql.Count("*")).
		From(b.Table(tableMembers)).
		Where(entsql.In("family_id", ids...)).
		GroupBy("family_id", "is_alive").
		Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to count members", "error", err)
		return nil, mapError(err, "member")
	}
	defer rows.Close()

	alive := make(map[uuid.UUID]int)
	dead := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id      uuid.UUID
			isAlive bool
			n       int
		)
		if err := rows.Scan(&id, &isAlive, &n); err != nil {
			return nil, mapError(err, "member")
		}
		if isAlive {
			alive[id] = n
		} else {
			dead[id] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "member")
	}

	for _, f := range families {
		items = append(items, entity.FamilySummary{
			ID:                  f.ID,
			HeadOfHouseholdName: f.HeadOfHouseholdName,
			Address:             f.Address,
			PhoneNumber:         f.PhoneNumber,
			MemberCount:         alive[f.ID] + dead[f.ID],
			AliveCount:          alive[f.ID],
			DeceasedCount:       dead[f.ID],
		})
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFamily(row rowScanner) (*entity.Family, error) {
	var (
		f       entity.Family
		address sql.NullString
		phone   sql.NullString
	)
	if err := row.Scan(&f.ID, &f.HeadOfHouseholdName, &address, &phone, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Address = nullStringPtr(address)
	f.PhoneNumber = nullStringPtr(phone)
	return &f, nil
}

func execAffectingOne(ctx context.Context, q querier, query string, args []any, what string) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, what)
	}
	if n == 0 {
		return mapError(sql.ErrNoRows, what)
	}
	return nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
