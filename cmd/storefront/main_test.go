package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("API_MAX_RETRIES", "0")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWhoami_Guest(t *testing.T) {
	out, err := runCLI(t, "whoami")
	require.NoError(t, err)

	var got sessionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "unauthenticated", got.Status)
	assert.Empty(t, got.UserID)
}

func TestCartAdd_GuestRental(t *testing.T) {
	out, err := runCLI(t, "cart", "add", "P1", "-q", "2", "--rent-days", "30", "--price", "49")
	require.NoError(t, err)

	var got struct {
		Items []struct {
			ProductID          string `json:"product_id"`
			Kind               string `json:"kind"`
			RentalDurationDays int    `json:"rental_duration_days"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "rent", got.Items[0].Kind)
	assert.Equal(t, 30, got.Items[0].RentalDurationDays)
}

func TestCartUpdate_RejectsNonNumericQuantity(t *testing.T) {
	_, err := runCLI(t, "cart", "update", "P1", "two")
	assert.ErrorContains(t, err, "whole number")
}

func TestCartAdd_ValidationError(t *testing.T) {
	_, err := runCLI(t, "cart", "add", "P1", "-q", "500")
	assert.ErrorContains(t, err, "quantity")
}

func TestLogin_RequiresUsername(t *testing.T) {
	_, err := runCLI(t, "login")
	assert.ErrorContains(t, err, "username")
}

func TestWishlistToggle_Guest(t *testing.T) {
	out, err := runCLI(t, "wishlist", "toggle", "P9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":"P9","member":true,"count":1}`, out)
}
