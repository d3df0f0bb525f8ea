package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
)

const tablePrayerRecords = "prayer_records"

type PrayerRecordRepository interface {
	// List returns records joined with their family. Records of one family
	// come newest year first; otherwise they are ordered by family name.
	List(ctx context.Context, filter entity.PrayerRecordFilter) ([]entity.PrayerRecordView, error)
	// Totals counts records and sums donations over filter, ignoring paging.
	Totals(ctx context.Context, filter entity.PrayerRecordFilter) (entity.PrayerTotals, error)
	YearSummaries(ctx context.Context) ([]entity.YearSummary, error)
	// ListForPrint returns every record for the year and ceremony, or only
	// recordID when it is set.
	ListForPrint(ctx context.Context, year int, t constants.PrayerType, recordID uuid.UUID) ([]entity.PrayerRecordView, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.PrayerRecord, error)
	Exists(ctx context.Context, year int, t constants.PrayerType, familyID uuid.UUID) (bool, error)
	Create(ctx context.Context, rec *entity.PrayerRecord) error
	Update(ctx context.Context, id uuid.UUID, donation *decimal.Decimal, notes *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type prayerRecordRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewPrayerRecordRepository(db *DB, logger *slog.Logger) PrayerRecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &prayerRecordRepository{
		db:     db,
		logger: logger,
	}
}

func (r *prayerRecordRepository) predicate(p *entsql.SelectTable, f entity.PrayerRecordFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Year != 0 {
		preds = append(preds, entsql.EQ(p.C("year"), f.Year))
	}
	if f.Type != "" {
		preds = append(preds, entsql.EQ(p.C("type"), string(f.Type)))
	}
	if f.FamilyID != uuid.Nil {
		preds = append(preds, entsql.EQ(p.C("family_id"), f.FamilyID))
	}
	if f.ID != uuid.Nil {
		preds = append(preds, entsql.EQ(p.C("id"), f.ID))
	}
	if len(preds) == 0 {
		return nil
	}
	return entsql.And(preds...)
}

func (r *prayerRecordRepository) List(ctx context.Context, filter entity.PrayerRecordFilter) ([]entity.PrayerRecordView, error) {
	b := r.db.builder()
	p := b.Table(tablePrayerRecords)
	f := b.Table(tableFamilies).As("f")

	sel := b.Select(
		p.C("id"), p.C("family_id"), p.C("year"), p.C("type"), p.C("donation_amount"), p.C("notes"), p.C("created_at"),
		f.C("head_of_household_name"), f.C("address"), f.C("phone_number"),
	).From(p).Join(f).On(p.C("family_id"), f.C("id"))
	if pred := r.predicate(p, filter); pred != nil {
		sel.Where(pred)
	}
	if filter.FamilyID != uuid.Nil {
		sel.OrderBy(entsql.Desc(p.C("year")), p.C("type"), p.C("id"))
	} else {
		sel.OrderBy(f.C("head_of_household_name"), p.C("id"))
	}
	if filter.Limit > 0 {
		sel.Limit(filter.Limit).Offset(filter.Offset)
	}

	query, args := sel.Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list prayer records", "error", err)
		return nil, mapError(err, "prayer record")
	}
	defer rows.Close()

	views := []entity.PrayerRecordView{}
	for rows.Next() {
		var (
			v        entity.PrayerRecordView
			typ      string
			donation decimal.NullDecimal
			notes    sql.NullString
			address  sql.NullString
			phone    sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.FamilyID, &v.Year, &typ, &donation, &notes, &v.CreatedAt,
			&v.FamilyName, &address, &phone); err != nil {
			return nil, mapError(err, "prayer record")
		}
		v.Type = constants.PrayerType(typ)
		v.DonationAmount = nullDecimalPtr(donation)
		v.Notes = nullStringPtr(notes)
		v.FamilyAddress = nullStringPtr(address)
		v.FamilyPhone = nullStringPtr(phone)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "prayer record")
	}
	if err := r.attachMemberCounts(ctx, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *prayerRecordRepository) attachMemberCounts(ctx context.Context, views []entity.PrayerRecordView) error {
	if len(views) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool)
	var ids []any
	for _, v := range views {
		if !seen[v.FamilyID] {
			seen[v.FamilyID] = true
			ids = append(ids, v.FamilyID)
		}
	}
	b := r.db.builder()
	query, args := b.Select("family_id", entsql.Count("*")).From(b.Table(tableMembers)).
		Where(entsql.In("family_id", ids...)).
		GroupBy("family_id").
		Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "member")
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return mapError(err, "member")
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return mapError(err, "member")
	}
	for i := range views {
		views[i].MemberCount = counts[views[i].FamilyID]
	}
	return nil
}

func (r *prayerRecordRepository) Totals(ctx context.Context, filter entity.PrayerRecordFilter) (entity.PrayerTotals, error) {
	b := r.db.builder()
	p := b.Table(tablePrayerRecords)
	sel := b.Select(p.C("donation_amount")).From(p)
	if pred := r.predicate(p, filter); pred != nil {
		sel.Where(pred)
	}
	query, args := sel.Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return entity.PrayerTotals{}, mapError(err, "prayer record")
	}
	defer rows.Close()

	totals := entity.PrayerTotals{Donation: decimal.Zero}
	for rows.Next() {
		var d decimal.NullDecimal
		if err := rows.Scan(&d); err != nil {
			return entity.PrayerTotals{}, mapError(err, "prayer record")
		}
		totals.Count++
		if d.Valid {
			totals.Donation = totals.Donation.Add(d.Decimal)
		}
	}
	return totals, mapError(rows.Err(), "prayer record")
}

func (r *prayerRecordRepository) YearSummaries(ctx context.Context) ([]entity.YearSummary, error) {
	b := r.db.builder()
	query, args := b.Select("year", "type", "donation_amount").From(b.Table(tablePrayerRecords)).Query()
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to summarize prayer records", "error", err)
		return nil, mapError(err, "prayer record")
	}
	defer rows.Close()

	byYear := make(map[int]*entity.YearSummary)
	for rows.Next() {
		var (
			year int
			typ  string
			d    decimal.NullDecimal
		)
		if err := rows.Scan(&year, &typ, &d); err != nil {
			return nil, mapError(err, "prayer record")
		}
		s, ok := byYear[year]
		if !ok {
			s = &entity.YearSummary{Year: year, TotalCauAnDonation: decimal.Zero, TotalCauSieuDonation: decimal.Zero}
			byYear[year] = s
		}
		amount := decimal.Zero
		if d.Valid {
			amount = d.Decimal
		}
		switch constants.PrayerType(typ) {
		case constants.CauAn:
			s.CauAnCount++
			s.TotalCauAnDonation = s.TotalCauAnDonation.Add(amount)
		case constants.CauSieu:
			s.CauSieuCount++
			s.TotalCauSieuDonation = s.TotalCauSieuDonation.Add(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "prayer record")
	}

	out := make([]entity.YearSummary, 0, len(byYear))
	for _, s := range byYear {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (r *prayerRecordRepository) ListForPrint(ctx context.Context, year int, t constants.PrayerType, recordID uuid.UUID) ([]entity.PrayerRecordView, error) {
	return r.List(ctx, entity.PrayerRecordFilter{Year: year, Type: t, ID: recordID})
}

func (r *prayerRecordRepository) Get(ctx context.Context, id uuid.UUID) (*entity.PrayerRecord, error) {
	b := r.db.builder()
	query, args := b.Select("id", "family_id", "year", "type", "donation_amount", "notes", "created_at").
		From(b.Table(tablePrayerRecords)).
		Where(entsql.EQ("id", id)).
		Query()
	var (
		rec      entity.PrayerRecord
		typ      string
		donation decimal.NullDecimal
		notes    sql.NullString
	)
	err := r.db.sql.QueryRowContext(ctx, query, args...).
		Scan(&rec.ID, &rec.FamilyID, &rec.Year, &typ, &donation, &notes, &rec.CreatedAt)
	if err != nil {
		return nil, mapError(err, "prayer record")
	}
	rec.Type = constants.PrayerType(typ)
	rec.DonationAmount = nullDecimalPtr(donation)
	rec.Notes = nullStringPtr(notes)
	return &rec, nil
}

func (r *prayerRecordRepository) Exists(ctx context.Context, year int, t constants.PrayerType, familyID uuid.UUID) (bool, error) {
	b := r.db.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tablePrayerRecords)).
		Where(entsql.And(
			entsql.EQ("year", year),
			entsql.EQ("type", string(t)),
			entsql.EQ("family_id", familyID),
		)).
		Query()
	var n int
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, mapError(err, "prayer record")
	}
	return n > 0, nil
}

func (r *prayerRecordRepository) Create(ctx context.Context, rec *entity.PrayerRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query, args := r.db.builder().Insert(tablePrayerRecords).
		Columns("id", "family_id", "year", "type", "donation_amount", "notes", "created_at").
		Values(rec.ID, rec.FamilyID, rec.Year, string(rec.Type), rec.DonationAmount, rec.Notes, rec.CreatedAt).
		Query()
	if _, err := r.db.sql.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create prayer record", "family_id", rec.FamilyID, "year", rec.Year, "type", rec.Type, "error", err)
		return mapError(err, "prayer record")
	}
	return nil
}

func (r *prayerRecordRepository) Update(ctx context.Context, id uuid.UUID, donation *decimal.Decimal, notes *string) error {
	query, args := r.db.builder().Update(tablePrayerRecords).
		Set("donation_amount", donation).
		Set("notes", notes).
		Where(entsql.EQ("id", id)).
		Query()
	return execAffectingOne(ctx, r.db.sql, query, args, "prayer record")
}

func (r *prayerRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.db.builder().Delete(tablePrayerRecords).Where(entsql.EQ("id", id)).Query()
	return execAffectingOne(ctx, r.db.sql, query, args, "prayer record")
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
