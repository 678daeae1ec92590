package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *AdminError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *AdminError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *AdminError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Schema errors

func UnknownFieldType(kind string) *AdminError {
	return New(CategoryValidation, SeverityFatal, "unknown field type").
		WithContext("kind", kind)
}

func DuplicateSchemaName(name string) *AdminError {
	return New(CategoryValidation, SeverityFatal, "duplicate schema name").
		WithContext("schema", name)
}

func DuplicateEntryPath(path string) *AdminError {
	return New(CategoryValidation, SeverityFatal, "duplicate computed entry path").
		WithContext("remote_path", path)
}

// Field errors

// StoredValueCorrupt reports value_json that the field type registered under
// the field's kind can no longer decode. This indicates storage or schema
// drift and is fatal.
func StoredValueCorrupt(field string, cause error) *AdminError {
	return Wrap(cause, CategoryField, SeverityFatal, "stored field value is not decodable").
		WithContext("field", field)
}

// Template errors

func TemplateFailed(name string, cause error) *AdminError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template rendering failed").
		WithContext("template", name)
}

// Network errors

func RemoteListFailed(cause error) *AdminError {
	return Wrap(cause, CategoryNetwork, SeverityFatal, "remote file listing failed")
}

func UploadFailed(batch int, cause error) *AdminError {
	return Wrap(cause, CategoryNetwork, SeverityFatal, "upload batch failed").
		WithContext("batch", batch)
}

func RemoteFileNotFound(path string) *AdminError {
	return New(CategoryNetwork, SeverityError, "remote file not found").
		WithContext("remote_path", path)
}

// Storage errors

func StoreFailed(operation string, cause error) *AdminError {
	return Wrap(cause, CategoryStorage, SeverityFatal, "record store operation failed").
		WithContext("operation", operation)
}

func SchemaNotFound(id int64) *AdminError {
	return New(CategoryStorage, SeverityFatal, "schema not found").
		WithContext("schema_id", id)
}

func RecordNotFound(id int64) *AdminError {
	return New(CategoryStorage, SeverityFatal, "record not found").
		WithContext("record_id", id)
}
