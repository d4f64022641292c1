package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func baseRequest() *ServiceRequest {
	return &ServiceRequest{
		ID:           "PGR-1",
		TenantID:     "pb",
		Description:  "pothole",
		Email:        "a@x.com",
		Mobile:       "9999999999",
		FileStoreID:  "F1",
		BoundaryCode: "B1",
		Address:      &Address{AddressLine: "MG Road", City: "Amritsar", Pincode: "143001"},
	}
}

func TestPatch_DescriptionOnlyLeavesOtherFieldsUnchanged(t *testing.T) {
	sr := baseRequest()
	before := *sr

	res := ServiceRequestPatch{Description: strPtr("deep pothole")}.Apply(sr)

	assert.Equal(t, "deep pothole", sr.Description)
	assert.Equal(t, before.Email, sr.Email)
	assert.Equal(t, before.Mobile, sr.Mobile)
	assert.Equal(t, before.BoundaryCode, sr.BoundaryCode)
	assert.Equal(t, before.FileStoreID, sr.FileStoreID)
	assert.Equal(t, before.Address, sr.Address)
	assert.Equal(t, PatchResult{}, res)
}

func TestPatch_ChangeDetection(t *testing.T) {
	tests := []struct {
		name  string
		patch ServiceRequestPatch
		want  PatchResult
	}{
		{
			name:  "same file store id is not a change",
			patch: ServiceRequestPatch{FileStoreID: strPtr("F1")},
			want:  PatchResult{},
		},
		{
			name:  "new file store id",
			patch: ServiceRequestPatch{FileStoreID: strPtr("F2")},
			want:  PatchResult{FileStoreChanged: true},
		},
		{
			name:  "new boundary code",
			patch: ServiceRequestPatch{BoundaryCode: strPtr("B2")},
			want:  PatchResult{BoundaryChanged: true},
		},
		{
			name:  "address and documents",
			patch: ServiceRequestPatch{Address: &Address{City: "Ludhiana"}, Documents: []Document{{FileStoreID: "F9"}}},
			want:  PatchResult{AddressChanged: true, DocumentsChanged: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := baseRequest()
			assert.Equal(t, tt.want, tt.patch.Apply(sr))
		})
	}
}

func TestPatch_AddressIsCopied(t *testing.T) {
	sr := baseRequest()
	addr := &Address{City: "Patiala"}

	ServiceRequestPatch{Address: addr}.Apply(sr)
	addr.City = "mutated"

	assert.Equal(t, "Patiala", sr.Address.City)
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, ServiceRequestPatch{}.IsEmpty())
	assert.False(t, ServiceRequestPatch{Mobile: strPtr("")}.IsEmpty())
}
