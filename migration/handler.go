package migration

import (
	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
)

// SchemaMigratingHandler returns a handler that ensures the message is in the
// current schema version before passing it down to the wrapped handler.
func SchemaMigratingHandler(packageName string, h vault.Handler) vault.Handler {
	return &schemaMigratingHandler{
		handler: h,
		pkg:     packageName,
		schema:  NewSchemaBucket(),
		migrate: reg.Apply,
	}
}

type schemaMigratingHandler struct {
	handler vault.Handler
	pkg     string
	schema  *SchemaBucket
	migrate func(db vault.ReadOnlyKVStore, m Migratable, migrateTo uint32) error
}

var _ vault.Handler = (*schemaMigratingHandler)(nil)

func (h *schemaMigratingHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if err := h.migrateMsg(db, tx); err != nil {
		return nil, errors.Wrap(err, "migrate msg")
	}
	return h.handler.Check(ctx, db, tx)
}

func (h *schemaMigratingHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	if err := h.migrateMsg(db, tx); err != nil {
		return nil, errors.Wrap(err, "migrate msg")
	}
	return h.handler.Deliver(ctx, db, tx)
}

func (h *schemaMigratingHandler) migrateMsg(db vault.KVStore, tx vault.Tx) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "get msg")
	}
	m, ok := msg.(Migratable)
	if !ok {
		return errors.Wrapf(errors.ErrType, "%T cannot be migrated", msg)
	}
	return migrate(h.migrate, h.schema, h.pkg, db, m)
}

// NewSchemaMigratingRegistry decorates given registry to always wrap
// registered handlers with SchemaMigratingHandler.
func NewSchemaMigratingRegistry(packageName string, r vault.Registry) vault.Registry {
	return &schemaMigratingRegistry{
		reg: r,
		pkg: packageName,
	}
}

type schemaMigratingRegistry struct {
	reg vault.Registry
	pkg string
}

func (r *schemaMigratingRegistry) Handle(m vault.Msg, h vault.Handler) {
	r.reg.Handle(m, SchemaMigratingHandler(r.pkg, h))
}
