package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/types"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err)
	return w.Code
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{types.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", types.ErrNotFound), http.StatusNotFound},
		{types.ErrInvalidCredentials, http.StatusUnauthorized},
		{types.ErrInvalidToken, http.StatusUnauthorized},
		{types.ErrExpiredToken, http.StatusUnauthorized},
		{types.ErrEmailTaken, http.StatusConflict},
		{types.ErrSlugTaken, http.StatusConflict},
		{types.ErrCartEmpty, http.StatusConflict},
		{types.ErrInvalidEmail, http.StatusBadRequest},
		{types.ErrWeakPassword, http.StatusBadRequest},
		{types.ErrInvalidQuantity, http.StatusBadRequest},
		{&types.InsufficientStockError{ProductID: uuid.New(), Requested: 3, Available: 1}, http.StatusConflict},
		{&types.InvalidTransitionError{From: types.OrderStatusPending, To: types.OrderStatusShipped}, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(t, tc.err); got != tc.want {
			t.Errorf("respondError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
