package handler

import (
	"log/slog"
	"net/http"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
)

const customerIDParam = "customerID"

type CustomerHandler struct {
	customers customer.CustomerService
	loans     loan.LoanService
	logger    *slog.Logger
}

func NewCustomerHandler(customers customer.CustomerService, loans loan.LoanService, l *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		loans:     loans,
		logger:    l.With("component", "CustomerHandler"),
	}
}

// ListCustomers returns the caller's customers.
//
// @Summary List customers
// @Tags Customers
// @Produce json
// @Success 200 {object} dto.Envelope{data=[]dto.CustomerResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}

	customers, err := h.customers.ListCustomers(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, dto.NewCustomerResponses(customers))
}

// CreateCustomer registers a borrower owned by the caller.
//
// @Summary Create a customer
// @Description Name is 1-50 characters, phone exactly 10 digits, address up to 200 characters, trustScore 0-100 (default 50).
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer payload"
// @Success 201 {object} dto.Envelope{data=dto.CustomerResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	created, err := h.customers.CreateCustomer(r.Context(), principal, req.ToInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, dto.NewCustomerResponse(created, nil))
}

// GetCustomer returns one customer together with its loans.
//
// @Summary Get a customer
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.Envelope{data=dto.CustomerResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 401 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	principal, customerID, err := principalAndID(r, customerIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	found, err := h.customers.GetCustomer(r.Context(), principal, customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.loans.ListCustomerLoans(r.Context(), principal, customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewCustomerResponse(found, loans))
}

// UpdateCustomer applies a partial update.
//
// @Summary Update a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID"
// @Param request body dto.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} dto.Envelope{data=dto.CustomerResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers/{customerID} [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	principal, customerID, err := principalAndID(r, customerIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode customer update", "error", err)
		rejectPayload(w, err, func() error {
			_, err := h.customers.GetCustomer(r.Context(), principal, customerID)
			return err
		})
		return
	}

	updated, err := h.customers.UpdateCustomer(r.Context(), principal, customerID, req.ToInput())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, dto.NewCustomerResponse(updated, nil))
}

// DeleteCustomer removes the customer. Its loans are left in place.
//
// @Summary Delete a customer
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /customers/{customerID} [delete]
// @Security BearerAuth
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	principal, customerID, err := principalAndID(r, customerIDParam)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.customers.DeleteCustomer(r.Context(), principal, customerID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.Envelope{Success: true})
}
