/*
Package migration provides tooling for schema versioning of models and
messages.

Every versioned entity must embed a Metadata header that contains the schema
version of its payload. Migration functions are registered per type and
version, and are applied in order to bring any older payload to the current
schema before it is used.

To enable schema versioning for a package, initialize its schema during
genesis with MustInitPkg and wrap its buckets with NewModelBucket and its
handlers with NewSchemaMigratingRegistry.
*/
package migration
