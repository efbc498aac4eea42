package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
)

type createOrderRequest struct {
	Items           []models.OrderItem `json:"items"`
	Address         models.Address     `json:"address"`
	AlternateNumber string             `json:"alternateNumber"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

type verifyOrderOTPRequest struct {
	OTP string `json:"otp"`
}

type cancelOrderRequest struct {
	Msg string `json:"msg"`
}

// createOrderHandler places an order from the submitted items
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createOrderRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	order, err := s.orderService.PlaceOrder(r.Context(), user, req.Items, req.Address, req.AlternateNumber)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Order placed",
		Data:    order,
	})
}

// getMyOrdersHandler lists the caller's orders
func (s *Server) getMyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	orders, err := s.orderService.GetMyOrders(r.Context(), user.Email)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    orders,
	})
}

// getOrderByIDHandler returns one order to its owner or an admin
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id := mux.Vars(r)["id"]

	order, err := s.orderService.GetOrder(r.Context(), id)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	if user.Role != models.RoleAdmin && order.Email != user.Email {
		s.respondWithMessage(w, http.StatusForbidden, "You can only view your own orders")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// getOrdersHandler lists orders for the admin panel with pagination
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := s.orderService.GetAllOrders(r.Context(), limit, offset)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	total, err := s.orderService.CountOrders(r.Context())

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"orders": orders,
			"total":  total,
		},
	})
}

// updateOrderStatusHandler moves an order along the workflow. Requesting
// Completed issues a verification code instead of completing directly.
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req updateStatusRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	order, err := s.orderService.RequestStatusChange(r.Context(), id, req.Status, user.Name, req.Msg)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	message := "Order status updated"
	if order.HasPendingOTP() {
		message = "A completion code has been emailed to the customer"
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: message,
		Data:    order,
	})
}

// verifyOrderOTPHandler confirms the completion code
func (s *Server) verifyOrderOTPHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req verifyOrderOTPRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	order, err := s.orderService.ConfirmCompletion(r.Context(), id, req.OTP)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Order completed",
		Data:    order,
	})
}

// cancelOrderHandler lets the owner cancel a still-Pending order
func (s *Server) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req cancelOrderRequest
	// an empty body is a cancellation without a message
	_ = decodeJSON(r, &req)

	order, err := s.orderService.CancelByCustomer(r.Context(), id, user, req.Msg)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Order cancelled",
		Data:    order,
	})
}
