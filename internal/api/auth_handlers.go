package api

import (
	"net/http"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
)

type signUpRequest struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

type otpRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	Identifier  string `json:"identifier"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type updateProfileRequest struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
}

// signUpHandler registers an unverified account and emails the code
func (s *Server) signUpHandler(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	user, err := s.authService.SignUp(r.Context(), req.Name, req.MobileNumber, req.Email, req.Password)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Account created, check your email for the verification code",
		Data:    user,
	})
}

// verifyHandler confirms the verification code
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	user, err := s.authService.VerifyUser(r.Context(), req.Identifier, req.OTP)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Account verified",
		Data:    user,
	})
}

// resendOTPHandler issues a fresh verification code
func (s *Server) resendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	if err := s.authService.ResendOTP(r.Context(), req.Identifier); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "A new verification code has been sent",
	})
}

// signInHandler exchanges credentials for a session token
func (s *Server) signInHandler(w http.ResponseWriter, r *http.Request) {
	var req signInRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	token, user, err := s.authService.SignIn(r.Context(), req.Identifier, req.Password)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Signed in",
		Data: map[string]interface{}{
			"token": token,
			"user":  user,
		},
	})
}

// forgotPasswordHandler issues a password reset code
func (s *Server) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	if err := s.authService.ForgotPassword(r.Context(), req.Identifier); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "A password reset code has been sent",
	})
}

// verifyForgotOTPHandler checks a reset code without consuming it
func (s *Server) verifyForgotOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	if err := s.authService.VerifyForgotOTP(r.Context(), req.Identifier, req.OTP); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Code verified",
	})
}

// changePasswordHandler consumes a reset code and stores the new password
func (s *Server) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	if err := s.authService.ChangePassword(r.Context(), req.Identifier, req.OTP, req.NewPassword); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Password changed",
	})
}

// getMeHandler returns the signed-in account
func (s *Server) getMeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    user,
	})
}

// updateMeHandler changes the profile fields of the signed-in account
func (s *Server) updateMeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req updateProfileRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	updated, err := s.authService.UpdateUser(r.Context(), user.ID, req.Name, req.MobileNumber)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Profile updated",
		Data:    updated,
	})
}

// deleteMeHandler removes the signed-in account
func (s *Server) deleteMeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if err := s.authService.DeleteUser(r.Context(), user.ID); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Account deleted",
	})
}

// getCartHandler returns the server-held cart
func (s *Server) getCartHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	cart, err := s.authService.GetCart(r.Context(), user.ID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    cart,
	})
}

// updateCartHandler replaces the server-held cart
func (s *Server) updateCartHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req struct {
		Items []models.CartItem `json:"items"`
	}

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	cart, err := s.authService.UpdateCart(r.Context(), user.ID, req.Items)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Cart updated",
		Data:    cart,
	})
}
