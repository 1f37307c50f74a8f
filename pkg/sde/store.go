package sde

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/shipyard/pkg/errors"
)

// requiredTables must exist for the store to be usable.
var requiredTables = []string{
	"invMarketGroups",
	"invTypes",
	"industryActivityProducts",
	"industryActivityMaterials",
}

// activityFilter restricts recipe queries to manufacturing and reactions.
var activityFilter = fmt.Sprintf("activityID IN (%d, %d)", ActivityManufacturing, ActivityReaction)

// Store is a read-only handle on an SDE SQLite dump.
//
// A Store is safe for concurrent use; database/sql pools the connections.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the SDE dump at path read-only and checks that the expected
// tables are present. Any failure is reported as [errors.ErrCodeStoreUnavailable].
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "stat %s", path)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "open %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "ping %s", path)
	}

	s := &Store{db: db, path: path}
	if err := s.checkSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Fingerprint identifies the snapshot on disk by path, size and modification
// time. It changes whenever the dump is replaced.
func (s *Store) Fingerprint() (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStoreUnavailable, err, "stat %s", s.path)
	}
	return fmt.Sprintf("%s|%d|%d", s.path, info.Size(), info.ModTime().UnixNano()), nil
}

func (s *Store) checkSchema(ctx context.Context) error {
	var missing []string
	for _, table := range requiredTables {
		var name string
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err == sql.ErrNoRows {
			missing = append(missing, table)
			continue
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "inspect schema")
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeStoreUnavailable, "%s: missing tables: %s", s.path, strings.Join(missing, ", "))
	}
	return nil
}

// MarketGroups returns the whole market group tree, ordered by id.
func (s *Store) MarketGroups(ctx context.Context) ([]MarketGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT marketGroupID, marketGroupName, parentGroupID
FROM invMarketGroups
ORDER BY marketGroupID`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "query market groups")
	}
	defer rows.Close()

	var groups []MarketGroup
	for rows.Next() {
		var (
			g      MarketGroup
			name   sql.NullString
			parent sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &name, &parent); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "scan market group")
		}
		g.Name = name.String
		if parent.Valid {
			p := parent.Int64
			g.ParentID = &p
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "iterate market groups")
	}
	return groups, nil
}

// TypesInGroups returns all types whose market group is in groups, ordered by id.
func (s *Store) TypesInGroups(ctx context.Context, groups []int64) ([]Type, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(groups)), ", ")
	args := make([]any, len(groups))
	for i, g := range groups {
		args[i] = g
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT typeID, typeName, marketGroupID
FROM invTypes
WHERE marketGroupID IN (`+placeholders+`)
ORDER BY typeID`, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "query types")
	}
	defer rows.Close()

	var types []Type
	for rows.Next() {
		var (
			t    Type
			name sql.NullString
		)
		if err := rows.Scan(&t.ID, &name, &t.MarketGroupID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "scan type")
		}
		t.Name = name.String
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "iterate types")
	}
	return types, nil
}

// TypeName returns the display name of id. The boolean is false when the
// type is unknown or its name is NULL.
func (s *Store) TypeName(ctx context.Context, id TypeID) (string, bool, error) {
	var name sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT typeName FROM invTypes WHERE typeID = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreQuery, err, "type name %d", id)
	}
	return name.String, name.Valid, nil
}

// RecipeFor returns the manufacturing or reaction recipe that produces
// product. The boolean is false when the product has no such recipe. If more
// than one blueprint produces the product, the lowest blueprint id wins.
func (s *Store) RecipeFor(ctx context.Context, product TypeID) (Recipe, bool, error) {
	r := Recipe{ProductID: product}
	err := s.db.QueryRowContext(ctx, `
SELECT typeID, quantity, activityID
FROM industryActivityProducts
WHERE productTypeID = ?
  AND `+activityFilter+`
ORDER BY typeID
LIMIT 1`, product).Scan(&r.ID, &r.Quantity, &r.Activity)
	if err == sql.ErrNoRows {
		return Recipe{}, false, nil
	}
	if err != nil {
		return Recipe{}, false, errors.Wrap(errors.ErrCodeStoreQuery, err, "recipe for %d", product)
	}
	return r, true, nil
}

// Materials returns the inputs of recipe, ordered by material id.
func (s *Store) Materials(ctx context.Context, recipe TypeID) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT materialTypeID, quantity
FROM industryActivityMaterials
WHERE typeID = ?
  AND `+activityFilter+`
ORDER BY materialTypeID`, recipe)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "materials of %d", recipe)
	}
	defer rows.Close()

	materials := []Material{}
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.TypeID, &m.Quantity); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "scan material")
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, err, "iterate materials")
	}
	return materials, nil
}
