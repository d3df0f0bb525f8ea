package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
)

const tableMembers = "members"

var memberColumns = []string{"id", "family_id", "name", "birth_year", "gender", "dharma_name", "is_alive"}

type MemberRepository interface {
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*entity.Member, error)
	// ListByFamilies groups the members of several families by family id.
	ListByFamilies(ctx context.Context, familyIDs []uuid.UUID) (map[uuid.UUID][]*entity.Member, error)
	ListAll(ctx context.Context) ([]*entity.Member, error)
	// Get returns the member only when it belongs to familyID.
	Get(ctx context.Context, familyID, memberID uuid.UUID) (*entity.Member, error)
	Add(ctx context.Context, member *entity.Member) error
	Update(ctx context.Context, member *entity.Member) error
	Delete(ctx context.Context, familyID, memberID uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type memberRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewMemberRepository(db *DB, logger *slog.Logger) MemberRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &memberRepository{
		db:     db,
		logger: logger,
	}
}

func (r *memberRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*entity.Member, error) {
	b := r.db.builder()
	return r.query(ctx, b.Select(memberColumns...).From(b.Table(tableMembers)).
		Where(entsql.EQ("family_id", familyID)).
		OrderBy("name", "id"))
}

func (r *memberRepository) ListByFamilies(ctx context.Context, familyIDs []uuid.UUID) (map[uuid.UUID][]*entity.Member, error) {
	out := make(map[uuid.UUID][]*entity.Member, len(familyIDs))
	if len(familyIDs) == 0 {
		return out, nil
	}
	ids := make([]any, len(familyIDs))
	for i, id := range familyIDs {
		ids[i] = id
	}
	b := r.db.builder()
	members, err := r.query(ctx, b.Select(memberColumns...).From(b.Table(tableMembers)).
		Where(entsql.In("family_id", ids...)).
		OrderBy("birth_year", "name", "id"))
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.FamilyID] = append(out[m.FamilyID], m)
	}
	return out, nil
}

func (r *memberRepository) ListAll(ctx context.Context) ([]*entity.Member, error) {
	b := r.db.builder()
	return r.query(ctx, b.Select(memberColumns...).From(b.Table(tableMembers)).OrderBy("id"))
}

func (r *memberRepository) Get(ctx context.Context, familyID, memberID uuid.UUID) (*entity.Member, error) {
	b := r.db.builder()
	query, args := b.Select(memberColumns...).From(b.Table(tableMembers)).
		Where(entsql.And(entsql.EQ("id", memberID), entsql.EQ("family_id", familyID))).
		Query()
	m, err := scanMember(r.db.sql.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) Add(ctx context.Context, member *entity.Member) error {
	err := insertMembers(ctx, r.db, r.db.sql, member.FamilyID, []*entity.Member{member})
	if err != nil {
		r.logger.Error("failed to add member", "family_id", member.FamilyID, "error", err)
		return mapError(err, "member")
	}
	return nil
}

func (r *memberRepository) Update(ctx context.Context, member *entity.Member) error {
	query, args := r.db.builder().Update(tableMembers).
		Set("name", member.Name).
		Set("name_fold", strings.ToLower(member.Name)).
		Set("birth_year", member.BirthYear).
		Set("gender", member.IsMale).
		Set("dharma_name", member.DharmaName).
		Set("is_alive", member.IsAlive).
		Where(entsql.And(entsql.EQ("id", member.ID), entsql.EQ("family_id", member.FamilyID))).
		Query()
	return execAffectingOne(ctx, r.db.sql, query, args, "member")
}

func (r *memberRepository) Delete(ctx context.Context, familyID, memberID uuid.UUID) error {
	query, args := r.db.builder().Delete(tableMembers).
		Where(entsql.And(entsql.EQ("id", memberID), entsql.EQ("family_id", familyID))).
		Query()
	return execAffectingOne(ctx, r.db.sql, query, args, "member")
}

func (r *memberRepository) Count(ctx context.Context) (int, error) {
	b := r.db.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableMembers)).Query()
	var n int
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "member")
	}
	return n, nil
}

func (r *memberRepository) query(ctx context.Context, sel *entsql.Selector) ([]*entity.Member, error) {
	query, args := sel.Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list members", "error", err)
		return nil, mapError(err, "member")
	}
	defer rows.Close()

	out := []*entity.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, mapError(err, "member")
		}
		out = append(out, m)
	}
	return out, mapError(rows.Err(), "member")
}

// insertMembers assigns ids and writes members for familyID using q.
func insertMembers(ctx context.Context, db *DB, q querier, familyID uuid.UUID, members []*entity.Member) error {
	if len(members) == 0 {
		return nil
	}
	ins := db.builder().Insert(tableMembers).Columns(append(memberColumns, "name_fold")...)
	for _, m := range members {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.FamilyID = familyID
		ins.Values(m.ID, m.FamilyID, m.Name, m.BirthYear, m.IsMale, m.DharmaName, m.IsAlive, strings.ToLower(m.Name))
	}
	query, args := ins.Query()
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

func scanMember(row rowScanner) (*entity.Member, error) {
	var (
		m      entity.Member
		dharma sql.NullString
	)
	if err := row.Scan(&m.ID, &m.FamilyID, &m.Name, &m.BirthYear, &m.IsMale, &dharma, &m.IsAlive); err != nil {
		return nil, err
	}
	m.DharmaName = nullStringPtr(dharma)
	return &m, nil
}
