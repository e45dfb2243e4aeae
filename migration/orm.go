package migration

import (
	"reflect"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/orm"
)

// NewModelBucket returns a ModelBucket instance that ensures that all returned
// models are in the latest schema version. Every entity read from the database
// is migrated before being returned and every entity written is validated to
// not come from the future.
//
// Migrations are run using the globally registered migration functions for the
// given package.
func NewModelBucket(packageName string, b orm.ModelBucket) orm.ModelBucket {
	return &modelBucket{
		b:       b,
		pkg:     packageName,
		schema:  NewSchemaBucket(),
		migrate: reg.Apply,
	}
}

type modelBucket struct {
	b      orm.ModelBucket
	pkg    string
	schema *SchemaBucket

	// migrate is declared as an attribute so that tests can run with a
	// custom migration register.
	migrate func(db vault.ReadOnlyKVStore, m Migratable, migrateTo uint32) error
}

var _ orm.ModelBucket = (*modelBucket)(nil)

func (b *modelBucket) One(db vault.ReadOnlyKVStore, key []byte, dest orm.Model) error {
	if err := b.b.One(db, key, dest); err != nil {
		return err
	}
	return b.migrateOne(db, dest)
}

func (b *modelBucket) ByIndex(db vault.ReadOnlyKVStore, indexName string, key []byte, dest orm.ModelSlicePtr) ([][]byte, error) {
	keys, err := b.b.ByIndex(db, indexName, key, dest)
	if err != nil {
		return nil, err
	}
	models, err := asMigratableSlice(dest)
	if err != nil {
		return nil, err
	}
	for i, m := range models {
		if err := b.migrateOne(db, m); err != nil {
			return nil, errors.Wrapf(err, "model %d", i)
		}
	}
	return keys, nil
}

func (b *modelBucket) Put(db vault.KVStore, key []byte, m orm.Model) ([]byte, error) {
	migratable, ok := m.(Migratable)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T cannot be migrated", m)
	}
	if err := b.migrateOne(db, migratable); err != nil {
		return nil, err
	}
	return b.b.Put(db, key, m)
}

func (b *modelBucket) Delete(db vault.KVStore, key []byte) error {
	return b.b.Delete(db, key)
}

func (b *modelBucket) Has(db vault.KVStore, key []byte) error {
	return b.b.Has(db, key)
}

func (b *modelBucket) Register(name string, r vault.QueryRouter) {
	b.b.Register(name, r)
}

// asMigratableSlice converts a ModelSlicePtr as accepted by the ByIndex
// method into a slice of Migratable instances. The destination slice must
// already be populated.
func asMigratableSlice(dest orm.ModelSlicePtr) ([]Migratable, error) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "%T is not a pointer to a slice", dest)
	}
	slice := v.Elem()
	models := make([]Migratable, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		item := slice.Index(i)
		if item.Kind() != reflect.Ptr {
			item = item.Addr()
		}
		m, ok := item.Interface().(Migratable)
		if !ok {
			return nil, errors.Wrapf(errors.ErrType, "%T cannot be migrated", item.Interface())
		}
		models = append(models, m)
	}
	return models, nil
}

func (b *modelBucket) migrateOne(db vault.ReadOnlyKVStore, value interface{}) error {
	m, ok := value.(Migratable)
	if !ok {
		return errors.Wrapf(errors.ErrType, "%T cannot be migrated", value)
	}
	return migrate(b.migrate, b.schema, b.pkg, db, m)
}

// Migrate migrates a single message or model to the currently active schema
// version of the given package. Migrations are applied using globally
// registered migration functions.
func Migrate(db vault.ReadOnlyKVStore, packageName string, msgOrModel Migratable) error {
	return migrate(reg.Apply, NewSchemaBucket(), packageName, db, msgOrModel)
}

func migrate(
	migrateFn func(db vault.ReadOnlyKVStore, m Migratable, migrateTo uint32) error,
	schema *SchemaBucket,
	packageName string,
	db vault.ReadOnlyKVStore,
	value Migratable,
) error {
	currSchemaVer, err := schema.CurrentSchema(db, packageName)
	if err != nil {
		return errors.Wrapf(err, "current schema version of package %q", packageName)
	}

	meta := value.GetMetadata()
	if meta == nil {
		return errors.Wrapf(errors.ErrMetadata, "%T metadata is nil", value)
	}

	// In case of schema not being set we assume the most recent schema.
	if meta.Schema == 0 {
		meta.Schema = currSchemaVer
		return nil
	}

	if meta.Schema > currSchemaVer {
		return errors.Wrapf(errors.ErrSchema, "model schema %d is greater than the current schema %d", meta.Schema, currSchemaVer)
	}

	// Migration is applied in place on the value.
	if err := migrateFn(db, value, currSchemaVer); err != nil {
		return errors.Wrap(err, "schema migration")
	}
	return nil
}
