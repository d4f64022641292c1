package domain

// ServiceRequestPatch carries the fields an update may change.
// A nil field means "leave unchanged".
type ServiceRequestPatch struct {
	Description  *string
	Address      *Address
	Documents    []Document
	Email        *string
	Mobile       *string
	FileStoreID  *string
	BoundaryCode *string
}

// PatchResult tells the caller which fields need follow-up work.
type PatchResult struct {
	AddressChanged   bool
	DocumentsChanged bool
	FileStoreChanged bool
	BoundaryChanged  bool
}

// Apply merges the patch into r. FileStoreID and BoundaryCode only count as
// changed when they differ from the current value.
func (p ServiceRequestPatch) Apply(r *ServiceRequest) PatchResult {
	var res PatchResult

	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Mobile != nil {
		r.Mobile = *p.Mobile
	}
	if p.Address != nil {
		addr := *p.Address
		r.Address = &addr
		res.AddressChanged = true
	}
	if p.Documents != nil {
		r.Documents = append([]Document(nil), p.Documents...)
		res.DocumentsChanged = true
	}
	if p.FileStoreID != nil && *p.FileStoreID != r.FileStoreID {
		r.FileStoreID = *p.FileStoreID
		res.FileStoreChanged = true
	}
	if p.BoundaryCode != nil && *p.BoundaryCode != r.BoundaryCode {
		r.BoundaryCode = *p.BoundaryCode
		res.BoundaryChanged = true
	}

	return res
}

// IsEmpty reports whether the patch changes nothing.
func (p ServiceRequestPatch) IsEmpty() bool {
	return p.Description == nil && p.Address == nil && p.Documents == nil &&
		p.Email == nil && p.Mobile == nil && p.FileStoreID == nil && p.BoundaryCode == nil
}
