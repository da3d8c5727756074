package dto

import (
	"encoding/json"
	"testing"
	"time"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCustomerRequestToInput(t *testing.T) {
	var req UpdateCustomerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"phone":"9876543210","trustScore":80}`), &req))

	in := req.ToInput()
	assert.Nil(t, in.Name)
	assert.Nil(t, in.Address)
	require.NotNil(t, in.Phone)
	assert.Equal(t, "9876543210", *in.Phone)
	require.NotNil(t, in.TrustScore)
	assert.Equal(t, 80, *in.TrustScore)
}

func TestNewCustomerResponseEmbedsLoans(t *testing.T) {
	c := &customer.Customer{ID: 4, Name: "Ravi", Phone: "9876543210", TrustScore: 50, OwnerID: "alice"}
	loans := []*loan.Loan{
		{ID: 1, Amount: 500, Description: "tools", DueDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Status: loan.StatusPending},
	}

	resp := NewCustomerResponse(c, loans)

	assert.Equal(t, "4", resp.ID)
	require.Len(t, resp.Loans, 1)
	assert.Equal(t, "2024-05-01", resp.Loans[0].DueDate)
	assert.Equal(t, "pending", resp.Loans[0].Status)

	b, err := json.Marshal(NewCustomerResponse(c, nil))
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"loans"`)
}

func TestEnvelopes(t *testing.T) {
	b, err := json.Marshal(NewListEnvelope([]string{}, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[],"count":0}`, string(b))

	b, err = json.Marshal(NewEnvelope(map[string]int{"a": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"a":1}}`, string(b))
}
