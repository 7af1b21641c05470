package engine

// SaveResult reports the outcome of a save
type SaveResult struct {
	// ID is the caller's key on update, the generated key on insert
	ID Value
	// Inserted is false when the save updated an existing row
	Inserted bool
	// Payload is exactly what was written
	Payload Record
}

// Operation names the write that was issued
func (r *SaveResult) Operation() string {
	if r.Inserted {
		return "INSERT"
	}
	return "UPDATE"
}

// Map renders the result for JSON responses
func (r *SaveResult) Map() map[string]any {
	return map[string]any{
		"id":        r.ID.Interface(),
		"inserted":  r.Inserted,
		"operation": r.Operation(),
		"payload":   r.Payload.Map(),
	}
}
