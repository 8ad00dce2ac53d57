/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/baserepo/types"
)

type author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID        string    `bun:"id,pk,type:varchar(36)"`
	Name      string    `bun:"name,notnull"`
	Status    string    `bun:"status,nullzero,notnull,default:'INACTIVE'"`
	Rank      int       `bun:"rank"`
	MentorID  string    `bun:"mentor_id,nullzero"`
	Mentor    *author   `bun:"rel:belongs-to,join:mentor_id=id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type counter struct {
	bun.BaseModel `bun:"table:counters,alias:c"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Label string `bun:"label"`
}

type statusCount struct {
	Status string `bun:"status"`
	Count  int    `bun:"count"`
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*author)(nil), (*counter)(nil)} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func newAuthorRepo(t *testing.T, opts ...Option) (Repository[author], *bun.DB) {
	db := newTestDB(t)
	return NewRepository[author](db, opts...), db
}

func seedAuthors(t *testing.T, repo Repository[author], statuses ...string) []*author {
	t.Helper()
	var out []*author
	for i, status := range statuses {
		a, err := repo.Create(context.Background(), &author{
			Name:   fmt.Sprintf("author-%02d", i),
			Status: status,
			Rank:   i,
		})
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func TestCreateFindByIDRoundTrip(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &author{Name: "A", Rank: 3})
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err, "string keys are generated as UUIDs")
	assert.Equal(t, "INACTIVE", created.Status, "defaults come back from the datastore")
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "A", found.Name)
	assert.Equal(t, 3, found.Rank)
	assert.Equal(t, "INACTIVE", found.Status)
	assert.NotSame(t, created, found)
}

func TestCreateKeepsExplicitKey(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	id := uuid.NewString()
	created, err := repo.Create(context.Background(), &author{ID: id, Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
}

func TestFindByIDAbsent(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	id := uuid.NewString()

	_, err := repo.FindByID(context.Background(), id, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Not found id: "+id, err.Error())
}

func TestFindOrFail(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	_, err := repo.FindOrFail(ctx, "not-a-key")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadInput))
	assert.Contains(t, err.Error(), `Cast to UUID failed for value "not-a-key"`)

	_, err = repo.FindOrFail(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, ErrNotFound))

	a := seedAuthors(t, repo, "ACTIVE")[0]
	found, err := repo.FindOrFail(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, found.Name)
}

func TestFindOneAndFindAbsent(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	one, err := repo.FindOne(ctx, types.Where(types.Eq("name", "nobody")), nil)
	require.NoError(t, err)
	assert.Nil(t, one)

	many, err := repo.Find(ctx, types.Where(types.Eq("name", "nobody")), nil)
	require.NoError(t, err)
	assert.NotNil(t, many)
	assert.Empty(t, many)
}

func TestFindOneOrFail(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	_, err := repo.FindOneOrFail(ctx, types.Where(types.Eq("name", "nobody")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelNotFound))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, `Model [authors] not found for query {"name":{"$eq":"nobody"}}`, err.Error())

	seeded := seedAuthors(t, repo, "ACTIVE", "INACTIVE")
	found, err := repo.FindOneOrFail(ctx, types.Where(types.Eq("status", "ACTIVE")))
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, found.ID)
}

func TestFindRejectsUnknownField(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	_, err := repo.Find(context.Background(), types.Where(types.Eq("nickname", "x")), nil)
	assert.True(t, errors.Is(err, ErrBadInput))

	_, err = repo.Find(context.Background(), nil, &ReadOptions{Sort: []types.Sort{types.Asc("nickname")}})
	assert.True(t, errors.Is(err, ErrBadInput))
}

func TestFindByStatusSorted(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	seedAuthors(t, repo, "INACTIVE", "ACTIVE", "INACTIVE", "ACTIVE", "INACTIVE")

	found, err := repo.Find(ctx,
		types.Where(types.Eq("status", "INACTIVE")),
		&ReadOptions{Sort: []types.Sort{types.Desc("name")}},
	)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, []string{"author-04", "author-02", "author-00"},
		[]string{found[0].Name, found[1].Name, found[2].Name})
}

func TestFilterOperators(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	seedAuthors(t, repo, "ACTIVE", "ACTIVE", "INACTIVE", "INACTIVE", "INACTIVE")

	count := func(f types.Filter) int {
		n, err := repo.Count(ctx, f)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 5, count(nil))
	assert.Equal(t, 2, count(types.Where(types.Gte("rank", 3))))
	assert.Equal(t, 2, count(types.Where(types.In("rank", 0, 4))))
	assert.Equal(t, 0, count(types.Where(types.In("rank"))))
	assert.Equal(t, 3, count(types.Where(types.NotIn("status", "ACTIVE"))))
	assert.Equal(t, 1, count(types.Where(types.Like("name", "%03"))))
	assert.Equal(t, 5, count(types.Where(types.IsNull("mentor_id"))))
	assert.Equal(t, 1, count(types.Where(types.Ne("status", "INACTIVE"), types.Lt("rank", 1))))
	assert.Equal(t, 2, count(types.NewQueryFilter("rank BETWEEN ? AND ?", 1, 2)))
}

func TestFindAllLimitAndSort(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	seedAuthors(t, repo, "ACTIVE", "ACTIVE", "ACTIVE", "ACTIVE")

	found, err := repo.FindAll(context.Background(), nil, 2, types.Desc("rank"))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, 3, found[0].Rank)
	assert.Equal(t, 2, found[1].Rank)

	all, err := repo.FindAll(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestProjection(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	a := seedAuthors(t, repo, "ACTIVE")[0]

	found, err := repo.FindByID(context.Background(), a.ID, &ReadOptions{Columns: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Equal(t, a.Name, found.Name)
	assert.Empty(t, found.Status)
}

func TestCreateOrUpdate(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	id := uuid.NewString()

	first, err := repo.CreateOrUpdate(ctx, &author{ID: id, Name: "same"})
	require.NoError(t, err)
	second, err := repo.CreateOrUpdate(ctx, &author{ID: id, Name: "same"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	n, err := repo.Count(ctx, types.Where(types.Eq("name", "same")))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	updated, err := repo.CreateOrUpdate(ctx, &author{ID: id, Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "INACTIVE", updated.Status)

	fresh, err := repo.CreateOrUpdate(ctx, &author{Name: "keyless"})
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.ID)
}

func TestCreateOrUpdateWritesZeroValues(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	mentor := seedAuthors(t, repo, "ACTIVE")[0]

	stored, err := repo.Create(ctx, &author{Name: "A", Status: "ACTIVE", Rank: 5, MentorID: mentor.ID})
	require.NoError(t, err)

	payload := author{ID: stored.ID, Name: "A"}
	for i := 0; i < 2; i++ {
		p := payload
		_, err := repo.CreateOrUpdate(ctx, &p)
		require.NoError(t, err)
	}

	found, err := repo.FindByID(ctx, stored.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Rank)
	assert.Empty(t, found.MentorID)
	assert.Equal(t, "INACTIVE", found.Status, "zero nullzero field takes the column default")
	assert.Equal(t, stored.CreatedAt.Unix(), found.CreatedAt.Unix())

	n, err := repo.Count(ctx, types.Where(types.Eq("name", "A")))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateOne(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	a := seedAuthors(t, repo, "INACTIVE")[0]

	updated, err := repo.UpdateOne(ctx, types.Where(types.Eq("id", a.ID)), types.Update{"status": "ACTIVE"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "ACTIVE", updated.Status)
	assert.Equal(t, a.Name, updated.Name)
	assert.False(t, updated.UpdatedAt.Before(a.UpdatedAt))

	missing, err := repo.UpdateOne(ctx, types.Where(types.Eq("name", "nobody")), types.Update{"status": "ACTIVE"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.UpdateOne(ctx, nil, types.Update{})
	assert.True(t, errors.Is(err, ErrBadInput))
	_, err = repo.UpdateOne(ctx, nil, types.Update{"nickname": "x"})
	assert.True(t, errors.Is(err, ErrBadInput))
	_, err = repo.UpdateOne(ctx, nil, types.Update{"id": uuid.NewString()})
	assert.True(t, errors.Is(err, ErrBadInput))
}

func TestUpdateByID(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	a := seedAuthors(t, repo, "INACTIVE")[0]

	updated, err := repo.UpdateByID(ctx, a.ID, types.Update{"rank": 42})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Rank)

	missing, err := repo.UpdateByID(ctx, uuid.NewString(), types.Update{"rank": 1})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.UpdateByID(ctx, "bogus", types.Update{"rank": 1})
	assert.True(t, errors.Is(err, ErrBadInput))
}

func TestRemoveByID(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	removed, err := repo.RemoveByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, removed)

	a := seedAuthors(t, repo, "ACTIVE")[0]
	removed, err = repo.RemoveByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, a.Name, removed.Name)

	removed, err = repo.RemoveByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestRemoveAll(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	seedAuthors(t, repo, "ACTIVE", "INACTIVE", "INACTIVE")

	n, err := repo.RemoveAll(ctx, types.Where(types.Eq("status", "INACTIVE")))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.RemoveAll(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestInsertManyAndUpsert(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	inserted, err := repo.InsertMany(ctx, []*author{{Name: "x"}, {Name: "y"}})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.NotEmpty(t, inserted[0].ID)
	assert.NotEqual(t, inserted[0].ID, inserted[1].ID)

	empty, err := repo.InsertMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	inserted[0].Name = "x2"
	require.NoError(t, repo.Upsert(ctx, []string{"name"}, inserted[0], &author{Name: "z"}))

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	got, err := repo.FindByID(ctx, inserted[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "x2", got.Name)

	assert.True(t, errors.Is(repo.Upsert(ctx, []string{"nickname"}, inserted[1]), ErrBadInput))
}

func TestDuplicateKeyUpsertQuotesColumns(t *testing.T) {
	sqldb, err := sql.Open("mysql", "app@tcp(127.0.0.1:3306)/app")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, mysqldialect.New())
	defer db.Close()

	repo := NewRepository[author](db).(*baseRepositoryImpl[author])
	query := repo.duplicateKeyInsert([]string{"name", "rank"}, []*author{{ID: "k1", Name: "a"}}).String()
	assert.Contains(t, query, "ON DUPLICATE KEY UPDATE ")
	assert.Contains(t, query, "`name` = VALUES(`name`)")
	assert.Contains(t, query, "`rank` = VALUES(`rank`)")
}

func TestPaginate(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()
	statuses := make([]string, 25)
	for i := range statuses {
		statuses[i] = "ACTIVE"
	}
	seedAuthors(t, repo, statuses...)

	page, err := repo.Paginate(ctx, types.NewPageRequestWithOrders(2, 10, []types.Sort{types.Asc("rank")}))
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 11, page.PagingCounter)
	require.Len(t, page.Items, 10)
	assert.Equal(t, 10, page.Items[0].Rank)
	assert.True(t, page.HasPrevPage)
	assert.True(t, page.HasNextPage)

	last, err := repo.Paginate(ctx, types.NewPageRequestWithOrders(3, 10, []types.Sort{types.Asc("rank")}))
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.False(t, last.HasNextPage)
	assert.Nil(t, last.NextPage)

	none, err := repo.Paginate(ctx, types.NewPageRequestWithFilter(1, 10, types.Where(types.Eq("status", "INACTIVE"))))
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Empty(t, none.Items)
	assert.Equal(t, 1, none.TotalPages)
}

func TestPopulateRelation(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	mentor, err := repo.Create(ctx, &author{Name: "mentor"})
	require.NoError(t, err)
	student, err := repo.Create(ctx, &author{Name: "student", MentorID: mentor.ID})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, student.ID, nil, "Mentor")
	require.NoError(t, err)
	require.NotNil(t, found.Mentor)
	assert.Equal(t, "mentor", found.Mentor.Name)
	assert.Equal(t, "student", found.Name)

	plain, err := repo.FindByID(ctx, student.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, plain.Mentor)
	require.NoError(t, repo.Populate(ctx, plain, "Mentor"))
	require.NotNil(t, plain.Mentor)
	assert.Equal(t, mentor.ID, plain.Mentor.ID)

	_, err = repo.FindByID(ctx, student.ID, nil, "Reviewer")
	assert.True(t, errors.Is(err, ErrBadInput))

	list, err := repo.Find(ctx, types.Where(types.NotNull("mentor_id")), nil, "Mentor")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mentor.ID, list[0].Mentor.ID)

	page, err := repo.Paginate(ctx, types.NewDefaultPageRequest(1, 10).WithPopulate("Mentor"))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestCustomPopulator(t *testing.T) {
	calls := 0
	p := NewPopulator[author]().
		Relation("mentor", "Mentor").
		Register("rankLabel", func(ctx context.Context, db bun.IDB, rec *author) error {
			calls++
			rec.Name = fmt.Sprintf("%s#%d", rec.Name, rec.Rank)
			return nil
		})
	repo, _ := newAuthorRepo(t, WithPopulator(p))
	ctx := context.Background()
	seedAuthors(t, repo, "ACTIVE", "ACTIVE")

	found, err := repo.Find(ctx, nil, &ReadOptions{Sort: []types.Sort{types.Asc("rank")}}, "rankLabel")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "author-00#0", found[0].Name)
	assert.Equal(t, "author-01#1", found[1].Name)
	assert.Equal(t, []string{"Mentor", "mentor", "rankLabel"}, repo.(*baseRepositoryImpl[author]).populator.Names())
}

func TestWithTxRollsBack(t *testing.T) {
	repo, db := newAuthorRepo(t)
	ctx := context.Background()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := repo.WithTx(tx).Create(ctx, &author{Name: "ghost"}); err != nil {
			return err
		}
		return errors.New("rollback")
	})
	require.Error(t, err)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIntegerKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository[counter](db)
	ctx := context.Background()

	c, err := repo.Create(ctx, &counter{Label: "first"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.ID)

	found, err := repo.FindByID(ctx, "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Label)

	found, err = repo.FindByID(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Label)

	_, err = repo.FindOrFail(ctx, "abc")
	assert.True(t, errors.Is(err, ErrBadInput))
	_, err = repo.FindOrFail(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "id", repo.PrimaryKey())
	assert.Equal(t, "counters", repo.Table().Name)
}

func TestCustomKeyGenerator(t *testing.T) {
	repo, _ := newAuthorRepo(t, WithKeyGenerator(func() string { return "fixed-key" }))
	a, err := repo.Create(context.Background(), &author{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-key", a.ID)

	found, err := repo.FindOrFail(context.Background(), "fixed-key")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)
}

func TestAggregatePaginate(t *testing.T) {
	repo, db := newAuthorRepo(t)
	ctx := context.Background()
	seedAuthors(t, repo, "ACTIVE", "INACTIVE", "INACTIVE", "ACTIVE", "INACTIVE")
	assert.Same(t, db, repo.AggDB())

	page, err := AggregatePaginate[author, statusCount](ctx, repo,
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Column("status").ColumnExpr("count(*) AS count").Group("status")
		},
		types.NewPageRequestWithOrders(1, 10, []types.Sort{types.Desc("count")}),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, statusCount{Status: "INACTIVE", Count: 3}, *page.Items[0])
	assert.Equal(t, statusCount{Status: "ACTIVE", Count: 2}, *page.Items[1])
}

func TestRecordLifecycle(t *testing.T) {
	repo, _ := newAuthorRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &author{Name: "A"})
	require.NoError(t, err)
	k1 := created.ID

	found, err := repo.FindByID(ctx, k1, nil)
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)

	_, err = repo.UpdateOne(ctx, types.Where(types.Eq("id", k1)), types.Update{"name": "B"})
	require.NoError(t, err)
	found, err = repo.FindByID(ctx, k1, nil)
	require.NoError(t, err)
	assert.Equal(t, "B", found.Name)

	_, err = repo.RemoveByID(ctx, k1)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, k1, nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("service: %w", notFoundError("k1"))
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
	assert.Equal(t, "not_found", kind.String())

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)

	wrapped := badInputError(assert.AnError, "bad key")
	assert.True(t, errors.Is(wrapped, assert.AnError))
	assert.Equal(t, "bad key: "+assert.AnError.Error(), wrapped.Error())
}
